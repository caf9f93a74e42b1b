package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
)

// CreateUserInput contains input for creating a user
type CreateUserInput struct {
	Username    string
	Email       string
	IsSuperuser bool
}

// PermissionUpdate sets capability flags for one user
type PermissionUpdate struct {
	UserID uuid.UUID
	Flags  map[identity.Capability]bool
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionDTO is one user's grants in one company
type PermissionDTO struct {
	UserID      uuid.UUID                     `json:"user_id"`
	CompanyID   uuid.UUID                     `json:"company_id"`
	Permissions map[identity.Capability]bool `json:"permissions"`
}

// UserRightsDTO is a row of the user rights screen
type UserRightsDTO struct {
	UserID      uuid.UUID                     `json:"user_id"`
	Username    string                        `json:"username"`
	IsSuperuser bool                          `json:"is_superuser"`
	Permissions map[identity.Capability]bool `json:"permissions"`
}

// ToUserDTO converts a domain User to UserDTO
func ToUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

// ToPermissionDTO converts a permission row to PermissionDTO
func ToPermissionDTO(p *identity.UserPermission) *PermissionDTO {
	return &PermissionDTO{
		UserID:      p.UserID,
		CompanyID:   p.CompanyID,
		Permissions: p.Flags(),
	}
}

package identity

import (
	"regexp"
	"strings"

	"github.com/voucherdesk/backend/internal/domain/shared"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_@+.\-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is an entry in the user directory. Credentials live with the external
// identity provider; this record only lets membership and approval rules
// resolve usernames.
type User struct {
	shared.BaseAggregateRoot
	Username    string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email       string `gorm:"type:varchar(254)"`
	IsSuperuser bool   `gorm:"not null;default:false"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user
func NewUser(username, email string, superuser bool) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		IsSuperuser:       superuser,
		IsActive:          true,
	}, nil
}

// Deactivate marks the user inactive. Inactive users drop out of every
// approval chain.
func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
}

// Activate marks the user active
func (u *User) Activate() {
	u.IsActive = true
	u.Touch()
}

// Principal returns the authenticated view of the user
func (u *User) Principal() Principal {
	return Principal{
		UserID:      u.ID,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewValidationError("Username cannot be empty")
	}
	if len(username) > 150 {
		return shared.NewValidationError("Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewValidationError("Username can only contain letters, numbers and @/./+/-/_")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 254 {
		return shared.NewValidationError("Email cannot exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("Invalid email format")
	}
	return nil
}

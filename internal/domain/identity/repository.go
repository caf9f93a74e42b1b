package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByIDs finds every user in ids. Missing ids are skipped.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll returns users matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]User, int64, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// PermissionRepository defines the interface for permission persistence
type PermissionRepository interface {
	// Find returns the permission row for (userID, companyID), or shared.ErrNotFound
	Find(ctx context.Context, userID, companyID uuid.UUID) (*UserPermission, error)

	// FindByCompany returns every permission row in the company
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]UserPermission, error)

	// Save inserts or updates the row keyed on (user, company)
	Save(ctx context.Context, perm *UserPermission) error

	// CreateIfAbsent inserts perm unless a row for the same (user, company) exists
	CreateIfAbsent(ctx context.Context, perm *UserPermission) error
}

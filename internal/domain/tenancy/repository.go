package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a company by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindByName finds a company by its unique name
	FindByName(ctx context.Context, name string) (*Company, error)

	// FindAll returns every company ordered by name
	FindAll(ctx context.Context) ([]Company, error)

	// FindActiveForUser returns active companies where userID holds an active membership
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]Company, error)

	// FindActive returns every active company ordered by name
	FindActive(ctx context.Context) ([]Company, error)

	// FindOldestExcept returns the earliest created company other than id
	FindOldestExcept(ctx context.Context, id uuid.UUID) (*Company, error)

	// ExistsByName checks whether another company already uses name
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}

// MembershipRepository defines the interface for membership persistence
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Update(ctx context.Context, m *Membership) error

	// FindByID finds a membership by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)

	// FindByUserAndCompany finds the membership for (userID, companyID)
	FindByUserAndCompany(ctx context.Context, userID, companyID uuid.UUID) (*Membership, error)

	// FindByCompany returns every membership of a company
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Membership, error)

	// FindActiveByUser returns the user's active memberships across companies
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)

	// FindApprovers returns active Admin Staff memberships holding one of designationIDs
	FindApprovers(ctx context.Context, companyID uuid.UUID, designationIDs []uuid.UUID) ([]Membership, error)
}

// DesignationRepository defines the interface for designation persistence
type DesignationRepository interface {
	Create(ctx context.Context, d *Designation) error

	// FindByID finds a designation within companyID
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Designation, error)

	// FindByCompany returns a company's designations ordered by name
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]Designation, error)

	// FindByName finds a designation by name within companyID
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*Designation, error)

	// ExistsByName checks whether name is taken within companyID
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
}

// ApprovalLevelRepository defines the interface for approval chain persistence
type ApprovalLevelRepository interface {
	// FindByCompany returns every level ordered by order
	FindByCompany(ctx context.Context, companyID uuid.UUID) ([]ApprovalLevel, error)

	// FindActiveByCompany returns active levels ordered by order
	FindActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]ApprovalLevel, error)

	// ReplaceAll deletes the company's levels and inserts levels in their place
	ReplaceAll(ctx context.Context, companyID uuid.UUID, levels []ApprovalLevel) error
}

// BankAccountRepository defines the interface for bank account persistence
type BankAccountRepository interface {
	Create(ctx context.Context, a *BankAccount) error
	Update(ctx context.Context, a *BankAccount) error
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds an account within companyID
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*BankAccount, error)

	// FindByCompany returns accounts ordered by bank name, active ones only when activeOnly
	FindByCompany(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]BankAccount, error)

	// Exists checks for an account with the same bank and number in companyID
	Exists(ctx context.Context, companyID uuid.UUID, bankName, accountNumber string) (bool, error)
}

// OrganizationProfileRepository is the single accessor of the one-row profile table
type OrganizationProfileRepository interface {
	// Get returns the profile, or an empty profile when the row is missing
	Get(ctx context.Context) (*OrganizationProfile, error)

	// Save upserts the row with id OrganizationProfileID
	Save(ctx context.Context, p *OrganizationProfile) error
}

// GroupMirror keeps the external authentication role groups of a user in
// step with their memberships.
type GroupMirror interface {
	// Reset clears every mirrored group of userID and sets exactly groups
	Reset(ctx context.Context, userID uuid.UUID, groups []RoleGroup) error

	// Groups returns the mirrored groups of userID
	Groups(ctx context.Context, userID uuid.UUID) ([]RoleGroup, error)
}

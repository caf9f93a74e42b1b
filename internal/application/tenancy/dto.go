package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
)

// CompanyInput carries the editable company fields
type CompanyInput struct {
	Name    string
	GSTNo   string
	PANNo   string
	Address string
	Email   string
	Phone   string
}

func (in CompanyInput) profile() tenancy.CompanyProfile {
	return tenancy.CompanyProfile{
		Name:    in.Name,
		GSTNo:   in.GSTNo,
		PANNo:   in.PANNo,
		Address: in.Address,
		Email:   in.Email,
		Phone:   in.Phone,
	}
}

// CreateMembershipInput contains input for assigning a user to a company
type CreateMembershipInput struct {
	UserID        uuid.UUID
	CompanyID     uuid.UUID
	Group         tenancy.RoleGroup
	DesignationID *uuid.UUID
	Mobile        string
}

// UpdateMembershipInput changes a membership. Nil fields stay unchanged.
type UpdateMembershipInput struct {
	Group         *tenancy.RoleGroup
	DesignationID *uuid.UUID
	Mobile        *string
	IsActive      *bool
}

// CompanyDTO represents company data transfer object
type CompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	GSTNo     string    `json:"gst_no"`
	PANNo     string    `json:"pan_no"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// MembershipDTO represents membership data transfer object
type MembershipDTO struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	CompanyID     uuid.UUID         `json:"company_id"`
	Group         tenancy.RoleGroup `json:"group"`
	DesignationID *uuid.UUID        `json:"designation_id,omitempty"`
	Mobile        string            `json:"mobile,omitempty"`
	IsActive      bool              `json:"is_active"`
}

// DesignationDTO represents designation data transfer object
type DesignationDTO struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
}

// ApprovalLevelDTO is one position of the approval chain
type ApprovalLevelDTO struct {
	ID              uuid.UUID `json:"id"`
	DesignationID   uuid.UUID `json:"designation_id"`
	DesignationName string    `json:"designation_name"`
	Order           int       `json:"order"`
	IsActive        bool      `json:"is_active"`
}

// BankAccountDTO represents bank account data transfer object
type BankAccountDTO struct {
	ID            uuid.UUID `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	Label         string    `json:"label"`
	IsActive      bool      `json:"is_active"`
}

// OrganizationProfileDTO is the organization letterhead
type OrganizationProfileDTO struct {
	Name    string `json:"name"`
	GSTNo   string `json:"gst_no"`
	PANNo   string `json:"pan_no"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// ToCompanyDTO converts a domain Company to CompanyDTO
func ToCompanyDTO(c *tenancy.Company) *CompanyDTO {
	return &CompanyDTO{
		ID:        c.ID,
		Name:      c.Name,
		GSTNo:     c.GSTNo,
		PANNo:     c.PANNo,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

// ToCompanyDTOs converts a slice of companies
func ToCompanyDTOs(companies []tenancy.Company) []CompanyDTO {
	out := make([]CompanyDTO, 0, len(companies))
	for i := range companies {
		out = append(out, *ToCompanyDTO(&companies[i]))
	}
	return out
}

// ToMembershipDTO converts a domain Membership to MembershipDTO
func ToMembershipDTO(m *tenancy.Membership) *MembershipDTO {
	return &MembershipDTO{
		ID:            m.ID,
		UserID:        m.UserID,
		CompanyID:     m.CompanyID,
		Group:         m.Group,
		DesignationID: m.DesignationID,
		Mobile:        m.Mobile,
		IsActive:      m.IsActive,
	}
}

// ToBankAccountDTO converts a domain BankAccount to BankAccountDTO
func ToBankAccountDTO(a *tenancy.BankAccount) *BankAccountDTO {
	return &BankAccountDTO{
		ID:            a.ID,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		Label:         a.Label(),
		IsActive:      a.IsActive,
	}
}

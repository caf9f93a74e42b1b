package tenancy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// ApprovalLevel places a designation at a position of its company's chain.
// Lower order approves first. Inactive levels are kept but never gate.
type ApprovalLevel struct {
	shared.BaseEntity
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_approval_levels_company_designation;uniqueIndex:idx_approval_levels_company_order"`
	DesignationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_approval_levels_company_designation"`
	Order         int        `gorm:"column:level_order;not null;uniqueIndex:idx_approval_levels_company_order"`
	IsActive      bool       `gorm:"not null"`
	UpdatedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ApprovalLevel) TableName() string {
	return "approval_levels"
}

// ChainEntry is one requested position in a replacement chain
type ChainEntry struct {
	DesignationID uuid.UUID
	IsActive      bool
}

// BuildApprovalLevels turns an ordered list of entries into fresh levels with
// order = position+1. Every designation must exist in designations, which is
// keyed by id and holds the company's designations only.
func BuildApprovalLevels(company *Company, entries []ChainEntry, designations map[uuid.UUID]Designation, editor uuid.UUID) ([]ApprovalLevel, error) {
	seen := make(map[uuid.UUID]bool, len(entries))
	levels := make([]ApprovalLevel, 0, len(entries))
	for i, e := range entries {
		d, ok := designations[e.DesignationID]
		if !ok || d.CompanyID != company.ID {
			return nil, shared.NewValidationError(fmt.Sprintf("Designation with ID %s not found in %s", e.DesignationID, company.Name))
		}
		if seen[e.DesignationID] {
			return nil, shared.NewValidationError(fmt.Sprintf("Designation %s appears more than once in the chain", d.Name))
		}
		seen[e.DesignationID] = true

		levels = append(levels, ApprovalLevel{
			BaseEntity:    shared.NewBaseEntity(),
			CompanyID:     company.ID,
			DesignationID: e.DesignationID,
			Order:         i + 1,
			IsActive:      e.IsActive,
			UpdatedBy:     &editor,
		})
	}
	return levels, nil
}

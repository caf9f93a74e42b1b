package voucher

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/shared/valueobject"
)

// Particular is one line item of a voucher
type Particular struct {
	shared.BaseEntity
	VoucherID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(300);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Attachments []Attachment    `gorm:"foreignKey:ParticularID"`
}

// TableName returns the table name for GORM
func (Particular) TableName() string {
	return "particulars"
}

// ParticularInput is a requested particular. On edit, empty Files keep the
// attachments of the particular at the same position.
type ParticularInput struct {
	Description string
	Amount      decimal.Decimal
	Files       []File
}

func (in ParticularInput) validate() (string, decimal.Decimal, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return "", decimal.Zero, shared.NewValidationError("Particular description is required.")
	}
	if len(desc) > 300 {
		return "", decimal.Zero, shared.NewValidationError("Particular description cannot exceed 300 characters.")
	}
	if !in.Amount.IsPositive() {
		return "", decimal.Zero, shared.NewValidationError("Particular amount must be greater than zero.")
	}
	return desc, valueobject.RoundMoney(in.Amount), nil
}

func buildParticulars(voucherID uuid.UUID, existing []Particular, inputs []ParticularInput) ([]Particular, error) {
	particulars, _, err := diffParticulars(voucherID, existing, inputs)
	return particulars, err
}

// diffParticulars applies inputs positionally: indexes covered by existing are
// updated in place, new indexes are created and trailing existing ones are
// dropped. It returns the resulting list and the attachments no longer used.
func diffParticulars(voucherID uuid.UUID, existing []Particular, inputs []ParticularInput) ([]Particular, []Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil, shared.NewValidationError("At least one particular is required.")
	}

	var detached []Attachment
	out := make([]Particular, 0, len(inputs))
	for i, in := range inputs {
		desc, amount, err := in.validate()
		if err != nil {
			return nil, nil, err
		}

		if i < len(existing) {
			p := existing[i]
			p.Position = i + 1
			p.Description = desc
			p.Amount = amount
			if len(in.Files) > 0 {
				detached = append(detached, p.Attachments...)
				p.Attachments = particularAttachments(voucherID, p.ID, in.Files)
			} else {
				p.Attachments = append([]Attachment(nil), p.Attachments...)
			}
			if len(p.Attachments) == 0 {
				return nil, nil, shared.NewValidationError(fmt.Sprintf("Particular %d requires at least one attachment.", i+1))
			}
			p.Touch()
			out = append(out, p)
			continue
		}

		if len(in.Files) == 0 {
			return nil, nil, shared.NewValidationError(fmt.Sprintf("Particular %d requires at least one attachment.", i+1))
		}
		p := Particular{
			BaseEntity:  shared.NewBaseEntity(),
			VoucherID:   voucherID,
			Position:    i + 1,
			Description: desc,
			Amount:      amount,
		}
		p.Attachments = particularAttachments(voucherID, p.ID, in.Files)
		out = append(out, p)
	}

	for _, p := range existing[min(len(existing), len(inputs)):] {
		detached = append(detached, p.Attachments...)
	}
	return out, detached, nil
}

func particularAttachments(voucherID, particularID uuid.UUID, files []File) []Attachment {
	out := make([]Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, newAttachment(voucherID, &particularID, AttachmentParticular, f))
	}
	return out
}

func sumParticulars(particulars []Particular) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(particulars))
	for _, p := range particulars {
		amounts = append(amounts, p.Amount)
	}
	return valueobject.Sum(amounts...)
}

package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucherdesk/backend/internal/domain/voucher"
)

// AttachmentInput references an object the caller already uploaded
type AttachmentInput struct {
	StorageKey  string
	FileName    string
	ContentType string
	Size        int64
}

// ParticularInput is one line item of a create or edit
type ParticularInput struct {
	Description string
	Amount      decimal.Decimal
	Files       []AttachmentInput
}

// VoucherInput contains input for creating or editing a voucher
type VoucherInput struct {
	Date         time.Time
	PaymentType  voucher.PaymentType
	NameTitle    voucher.NameTitle
	PayTo        string
	ChequeNumber string
	ChequeDate   *time.Time
	AccountID    *uuid.UUID
	MainFiles    []AttachmentInput
	ChequeFiles  []AttachmentInput
	Particulars  []ParticularInput
}

// ApprovalInput is an approver's decision
type ApprovalInput struct {
	Decision voucher.Decision
	Reason   string
}

// ChainLevelInput is one position of a replacement approval chain
type ChainLevelInput struct {
	DesignationID uuid.UUID
	IsActive      bool
}

// AttachmentDTO represents an attachment
type AttachmentDTO struct {
	ID          uuid.UUID              `json:"id"`
	Kind        voucher.AttachmentKind `json:"kind"`
	StorageKey  string                 `json:"storage_key"`
	FileName    string                 `json:"file_name"`
	ContentType string                 `json:"content_type,omitempty"`
	Size        int64                  `json:"size"`
	UploadedAt  time.Time              `json:"uploaded_at"`
}

// ParticularDTO represents a line item
type ParticularDTO struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Attachments []AttachmentDTO `json:"attachments"`
}

// ApprovalDTO is a recorded decision
type ApprovalDTO struct {
	ApproverID      uuid.UUID        `json:"approver_id"`
	Approver        string           `json:"approver"`
	Status          voucher.Decision `json:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	DecidedAt       time.Time        `json:"decided_at"`
}

// RequiredApproverDTO is one entry of the required approvers list
type RequiredApproverDTO struct {
	Username    string `json:"username"`
	Designation string `json:"designation,omitempty"`
	HasApproved bool   `json:"has_approved"`
}

// VoucherDTO represents voucher data transfer object
type VoucherDTO struct {
	ID           uuid.UUID           `json:"id"`
	CompanyID    uuid.UUID           `json:"company_id"`
	Number       string              `json:"voucher_number"`
	Date         time.Time           `json:"voucher_date"`
	PaymentType  voucher.PaymentType `json:"payment_type"`
	NameTitle    voucher.NameTitle   `json:"name_title"`
	PayTo        string              `json:"pay_to"`
	ChequeNumber *string             `json:"cheque_number,omitempty"`
	ChequeDate   *time.Time          `json:"cheque_date,omitempty"`
	AccountID    *uuid.UUID          `json:"account_id,omitempty"`
	Status       voucher.Status      `json:"status"`
	Total        string              `json:"total"`
	CreatedBy    *uuid.UUID          `json:"created_by,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Particulars  []ParticularDTO     `json:"particulars"`
	Attachments  []AttachmentDTO     `json:"attachments"`
}

// VoucherDetailDTO is the detail screen of a voucher
type VoucherDetailDTO struct {
	VoucherDTO
	Approvals         []ApprovalDTO         `json:"approvals"`
	RequiredApprovers []RequiredApproverDTO `json:"required_approvers"`
	CanApprove        bool                  `json:"can_approve"`
	CanEdit           bool                  `json:"can_edit"`
	WaitingFor        string                `json:"waiting_for,omitempty"`
}

// VoucherSummaryDTO is a list row
type VoucherSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"voucher_number"`
	Date          time.Time           `json:"voucher_date"`
	PaymentType   voucher.PaymentType `json:"payment_type"`
	PayTo         string              `json:"pay_to"`
	Status        voucher.Status      `json:"status"`
	Total         string              `json:"total"`
	ApprovedCount int64               `json:"approved_count"`
	RejectedCount int64               `json:"rejected_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ApprovalResultDTO reports the outcome of a recorded decision
type ApprovalResultDTO struct {
	VoucherID uuid.UUID        `json:"voucher_id"`
	Decision  voucher.Decision `json:"decision"`
	Status    voucher.Status   `json:"status"`
}

// ChainReplaceResultDTO reports the outcome of a chain replacement
type ChainReplaceResultDTO struct {
	Levels      int `json:"levels"`
	Recomputed  int `json:"recomputed"`
	NewApproved int `json:"new_approved"`
}

func (in VoucherInput) content() voucher.Content {
	particulars := make([]voucher.ParticularInput, 0, len(in.Particulars))
	for _, p := range in.Particulars {
		particulars = append(particulars, voucher.ParticularInput{
			Description: p.Description,
			Amount:      p.Amount,
			Files:       toFiles(p.Files),
		})
	}
	return voucher.Content{
		Details: voucher.Details{
			Date:         in.Date,
			PaymentType:  in.PaymentType,
			NameTitle:    in.NameTitle,
			PayTo:        in.PayTo,
			ChequeNumber: in.ChequeNumber,
			ChequeDate:   in.ChequeDate,
			AccountID:    in.AccountID,
		},
		MainFiles:   toFiles(in.MainFiles),
		ChequeFiles: toFiles(in.ChequeFiles),
		Particulars: particulars,
	}
}

// StorageKeys returns every storage key the input references
func (in VoucherInput) StorageKeys() []string {
	var keys []string
	collect := func(files []AttachmentInput) {
		for _, f := range files {
			keys = append(keys, f.StorageKey)
		}
	}
	collect(in.MainFiles)
	collect(in.ChequeFiles)
	for _, p := range in.Particulars {
		collect(p.Files)
	}
	return keys
}

func toFiles(in []AttachmentInput) []voucher.File {
	files := make([]voucher.File, 0, len(in))
	for _, f := range in {
		files = append(files, voucher.File{
			StorageKey:  f.StorageKey,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}
	return files
}

func toAttachmentDTOs(attachments []voucher.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, AttachmentDTO{
			ID:          a.ID,
			Kind:        a.Kind,
			StorageKey:  a.StorageKey,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        a.Size,
			UploadedAt:  a.UploadedAt,
		})
	}
	return out
}

// ToVoucherDTO converts a domain Voucher to VoucherDTO
func ToVoucherDTO(v *voucher.Voucher) *VoucherDTO {
	particulars := make([]ParticularDTO, 0, len(v.Particulars))
	for _, p := range v.Particulars {
		particulars = append(particulars, ParticularDTO{
			ID:          p.ID,
			Description: p.Description,
			Amount:      p.Amount,
			Attachments: toAttachmentDTOs(p.Attachments),
		})
	}
	return &VoucherDTO{
		ID:           v.ID,
		CompanyID:    v.CompanyID,
		Number:       v.Number,
		Date:         v.Date,
		PaymentType:  v.PaymentType,
		NameTitle:    v.NameTitle,
		PayTo:        v.PayTo,
		ChequeNumber: v.ChequeNumber,
		ChequeDate:   v.ChequeDate,
		AccountID:    v.AccountID,
		Status:       v.Status,
		Total:        v.Total(),
		CreatedBy:    v.CreatedBy,
		CreatedAt:    v.CreatedAt,
		Particulars:  particulars,
		Attachments:  toAttachmentDTOs(v.Attachments),
	}
}

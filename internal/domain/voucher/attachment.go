package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// AttachmentKind says what an attachment supports
type AttachmentKind string

const (
	AttachmentMain       AttachmentKind = "MAIN"
	AttachmentCheque     AttachmentKind = "CHEQUE"
	AttachmentParticular AttachmentKind = "PARTICULAR"
)

// File references an object already uploaded to attachment storage
type File struct {
	StorageKey  string
	FileName    string
	ContentType string
	Size        int64
}

// Attachment links a stored object to a voucher, or to one of its particulars
// when ParticularID is set.
type Attachment struct {
	shared.BaseEntity
	VoucherID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	ParticularID *uuid.UUID     `gorm:"type:uuid;index"`
	Kind         AttachmentKind `gorm:"type:varchar(12);not null"`
	StorageKey   string         `gorm:"type:varchar(500);not null"`
	FileName     string         `gorm:"type:varchar(255);not null"`
	ContentType  string         `gorm:"type:varchar(100)"`
	Size         int64          `gorm:"not null;default:0"`
	UploadedAt   time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Attachment) TableName() string {
	return "voucher_attachments"
}

func newAttachment(voucherID uuid.UUID, particularID *uuid.UUID, kind AttachmentKind, f File) Attachment {
	a := Attachment{
		BaseEntity:   shared.NewBaseEntity(),
		VoucherID:    voucherID,
		ParticularID: particularID,
		Kind:         kind,
		StorageKey:   f.StorageKey,
		FileName:     f.FileName,
		ContentType:  f.ContentType,
		Size:         f.Size,
	}
	a.UploadedAt = a.CreatedAt
	return a
}

// StorageKeys returns the object keys of attachments
func StorageKeys(attachments []Attachment) []string {
	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.StorageKey)
	}
	return keys
}

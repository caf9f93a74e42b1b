// Package storage keeps voucher attachment files in S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ObjectStorage is what the HTTP glue and the attachment remover need
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// AttachmentKey builds a unique object key for an uploaded file:
// vouchers/<company>/<yyyy>/<mm>/<uuid>-<sanitized name>
func AttachmentKey(companyID uuid.UUID, fileName string, now time.Time) string {
	name := unsafeName.ReplaceAllString(path.Base(strings.ReplaceAll(fileName, "\\", "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return fmt.Sprintf("vouchers/%s/%04d/%02d/%s-%s",
		companyID, now.Year(), int(now.Month()), uuid.New().String(), name)
}

// New returns the storage selected by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "", "stub":
		logger.Warn("using in-memory stub object storage; attachments are not persisted")
		return NewStubObjectStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

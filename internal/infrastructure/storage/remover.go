package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/voucherdesk/backend/internal/application/voucher"
	"go.uber.org/zap"
)

var _ voucher.AttachmentRemover = (*AttachmentRemover)(nil)

// AttachmentRemover deletes attachment objects once the voucher change that
// detached them has committed
type AttachmentRemover struct {
	storage ObjectStorage
	logger  *zap.Logger
}

// NewAttachmentRemover creates a remover over storage
func NewAttachmentRemover(storage ObjectStorage, logger *zap.Logger) *AttachmentRemover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentRemover{storage: storage, logger: logger.Named("storage")}
}

// batchDeleter is implemented by stores that can drop many objects per call
type batchDeleter interface {
	DeleteObjects(ctx context.Context, keys []string) (map[string]error, error)
}

// Remove deletes every key. It keeps going past failures and returns them
// joined; orphaned objects are logged for manual cleanup.
func (r *AttachmentRemover) Remove(ctx context.Context, keys []string) error {
	keys = slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == "" })
	if len(keys) == 0 {
		return nil
	}

	failed := map[string]error{}
	if bd, ok := r.storage.(batchDeleter); ok {
		var err error
		if failed, err = bd.DeleteObjects(ctx, keys); err != nil {
			r.logger.Warn("orphaned attachment objects", zap.Strings("keys", keys), zap.Error(err))
			return err
		}
	} else {
		for _, key := range keys {
			if err := r.storage.DeleteObject(ctx, key); err != nil {
				failed[key] = err
			}
		}
	}

	var errs []error
	for _, key := range keys {
		if err, ok := failed[key]; ok {
			r.logger.Warn("orphaned attachment object", zap.String("key", key), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

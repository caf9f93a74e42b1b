package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
)

// Authorizer is the capability gate every mutating entrypoint passes first
type Authorizer interface {
	Require(ctx context.Context, p identity.Principal, c identity.Capability, companyID uuid.UUID) error
}

// AttachmentRemover deletes stored attachment objects. It is called only
// after the owning transaction has committed.
type AttachmentRemover interface {
	Remove(ctx context.Context, keys []string) error
}

// RetryObserver is told about lock contention on approval recording
type RetryObserver interface {
	LockRetried(ctx context.Context, attempt int)
	LockExhausted(ctx context.Context)
}

// Config tunes the approval retry loop
type Config struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// BaseBackoff is the wait before the first retry; it doubles each time
	BaseBackoff time.Duration
}

// DefaultConfig retries three times after 100ms, 200ms and 400ms
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		BaseBackoff: 100 * time.Millisecond,
	}
}

type noopObserver struct{}

func (noopObserver) LockRetried(context.Context, int) {}
func (noopObserver) LockExhausted(context.Context)    {}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package voucher

import (
	"context"
	"time"
)

// SetSleep replaces the backoff wait of s
func (s *Service) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	s.sleep = fn
}

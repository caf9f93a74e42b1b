package cache

import (
	"fmt"

	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewGroupMirror returns the Redis mirror when Redis is enabled and
// reachable. Otherwise it returns the in-memory mirror, unless fallback is
// disallowed.
func NewGroupMirror(cfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (tenancy.GroupMirror, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory auth group mirror")
		return NewInMemoryGroupMirror(), nil
	}

	mirror, err := NewRedisGroupMirror(RedisConfig{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		logger.Info("using Redis auth group mirror", zap.String("addr", cfg.Addr()))
		return mirror, nil
	}
	if !allowFallback {
		return nil, fmt.Errorf("redis required for auth group mirror but unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory auth group mirror. "+
		"Groups will not be shared with other instances.",
		zap.Error(err),
	)
	return NewInMemoryGroupMirror(), nil
}

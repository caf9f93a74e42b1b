// Package cache holds the auth-group mirror: the role groups each user holds,
// kept where the external identity provider reads them.
package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
)

const defaultGroupKeyPrefix = "auth:groups:"

var _ tenancy.GroupMirror = (*RedisGroupMirror)(nil)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisGroupMirror stores each user's groups as a Redis set
type RedisGroupMirror struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisGroupMirror connects to Redis and pings it
func NewRedisGroupMirror(cfg RedisConfig) (*RedisGroupMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisGroupMirrorWithClient(client, ""), nil
}

// NewRedisGroupMirrorWithClient wraps an existing client
func NewRedisGroupMirrorWithClient(client redis.UniversalClient, keyPrefix string) *RedisGroupMirror {
	if keyPrefix == "" {
		keyPrefix = defaultGroupKeyPrefix
	}
	return &RedisGroupMirror{client: client, keyPrefix: keyPrefix}
}

func (m *RedisGroupMirror) key(userID uuid.UUID) string {
	return m.keyPrefix + userID.String()
}

// Reset replaces the user's groups in one MULTI/EXEC so readers never see
// the cleared-but-not-yet-set state.
func (m *RedisGroupMirror) Reset(ctx context.Context, userID uuid.UUID, groups []tenancy.RoleGroup) error {
	key := m.key(userID)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(groups) > 0 {
			members := make([]any, len(groups))
			for i, g := range groups {
				members[i] = string(g)
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset auth groups: %w", err)
	}
	return nil
}

// Groups returns the mirrored groups sorted by name
func (m *RedisGroupMirror) Groups(ctx context.Context, userID uuid.UUID) ([]tenancy.RoleGroup, error) {
	members, err := m.client.SMembers(ctx, m.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read auth groups: %w", err)
	}
	sort.Strings(members)
	groups := make([]tenancy.RoleGroup, len(members))
	for i, s := range members {
		groups[i] = tenancy.RoleGroup(s)
	}
	return groups, nil
}

// Close releases the client
func (m *RedisGroupMirror) Close() error {
	return m.client.Close()
}

//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
)

func newRedisMirror(t *testing.T) *RedisGroupMirror {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	m, err := NewRedisGroupMirror(RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestRedisGroupMirror_Reset(t *testing.T) {
	ctx := context.Background()
	m := newRedisMirror(t)
	userID := uuid.New()

	require.NoError(t, m.Reset(ctx, userID, []tenancy.RoleGroup{tenancy.GroupAdminStaff, tenancy.GroupAccountants}))
	groups, err := m.Groups(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAccountants, tenancy.GroupAdminStaff}, groups)

	require.NoError(t, m.Reset(ctx, userID, []tenancy.RoleGroup{tenancy.GroupAccountants}))
	groups, err = m.Groups(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAccountants}, groups)

	require.NoError(t, m.Reset(ctx, userID, nil))
	exists, err := m.client.Exists(ctx, m.key(userID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

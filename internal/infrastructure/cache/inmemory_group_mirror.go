package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
)

var _ tenancy.GroupMirror = (*InMemoryGroupMirror)(nil)

// InMemoryGroupMirror keeps groups in process memory. Used for tests and
// single-instance deployments without Redis.
type InMemoryGroupMirror struct {
	mu     sync.RWMutex
	groups map[uuid.UUID][]tenancy.RoleGroup
}

// NewInMemoryGroupMirror creates an empty mirror
func NewInMemoryGroupMirror() *InMemoryGroupMirror {
	return &InMemoryGroupMirror{groups: make(map[uuid.UUID][]tenancy.RoleGroup)}
}

// Reset replaces the user's groups
func (m *InMemoryGroupMirror) Reset(_ context.Context, userID uuid.UUID, groups []tenancy.RoleGroup) error {
	set := make(map[tenancy.RoleGroup]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	out := make([]tenancy.RoleGroup, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(out) == 0 {
		delete(m.groups, userID)
		return nil
	}
	m.groups[userID] = out
	return nil
}

// Groups returns a copy of the user's groups
func (m *InMemoryGroupMirror) Groups(_ context.Context, userID uuid.UUID) ([]tenancy.RoleGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tenancy.RoleGroup{}, m.groups[userID]...), nil
}

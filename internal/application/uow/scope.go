// Package uow defines the unit of work the application services run in.
package uow

import (
	"context"

	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
)

// Repositories gives access to every repository bound to the same database
// handle. Inside Execute that handle is the open transaction.
type Repositories interface {
	Users() identity.UserRepository
	Permissions() identity.PermissionRepository
	Companies() tenancy.CompanyRepository
	Memberships() tenancy.MembershipRepository
	Designations() tenancy.DesignationRepository
	ApprovalLevels() tenancy.ApprovalLevelRepository
	BankAccounts() tenancy.BankAccountRepository
	OrganizationProfile() tenancy.OrganizationProfileRepository
	Vouchers() voucher.Repository
	Approvals() voucher.ApprovalRepository
	Functions() venue.Repository
	Sequences() shared.SequenceRepository
}

// TransactionScope runs units of work atomically.
type TransactionScope interface {
	// Execute runs fn in one transaction. A returned error rolls it back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Repositories returns repositories outside any transaction, for reads
	Repositories() Repositories
}

// EventCollector gathers domain events raised during a unit of work so they
// can be published once it has committed.
type EventCollector struct {
	events []shared.DomainEvent
}

// Collect takes the pending events of each source and clears them there
func (c *EventCollector) Collect(sources ...shared.EventSource) {
	for _, s := range sources {
		c.events = append(c.events, s.GetDomainEvents()...)
		s.ClearDomainEvents()
	}
}

// Add appends events directly
func (c *EventCollector) Add(events ...shared.DomainEvent) {
	c.events = append(c.events, events...)
}

// Events returns everything collected so far
func (c *EventCollector) Events() []shared.DomainEvent {
	return c.events
}

// Reset drops collected events, used when a unit of work is retried
func (c *EventCollector) Reset() {
	c.events = nil
}

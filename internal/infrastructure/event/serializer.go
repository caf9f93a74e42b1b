package event

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
)

// EventSerializer encodes domain events as JSON and decodes them back into
// their concrete types by event type name.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]func() shared.DomainEvent
}

// NewEventSerializer knows every event voucherdesk publishes
func NewEventSerializer() *EventSerializer {
	s := &EventSerializer{factories: make(map[string]func() shared.DomainEvent)}

	s.Register(voucher.EventTypeVoucherCreated, func() shared.DomainEvent { return &voucher.VoucherCreatedEvent{} })
	s.Register(voucher.EventTypeApprovalRecorded, func() shared.DomainEvent { return &voucher.ApprovalRecordedEvent{} })
	s.Register(voucher.EventTypeVoucherDecided, func() shared.DomainEvent { return &voucher.VoucherDecidedEvent{} })

	s.Register(venue.EventTypeFunctionCreated, func() shared.DomainEvent { return &venue.FunctionCreatedEvent{} })
	s.Register(venue.EventTypeFunctionConfirmed, func() shared.DomainEvent { return &venue.FunctionConfirmedEvent{} })

	s.Register(tenancy.EventTypeCompanyCreated, func() shared.DomainEvent { return &tenancy.CompanyCreatedEvent{} })
	s.Register(tenancy.EventTypeMembershipChanged, func() shared.DomainEvent { return &tenancy.MembershipChangedEvent{} })
	s.Register(tenancy.EventTypeApprovalChainEdited, func() shared.DomainEvent { return &tenancy.ApprovalChainEditedEvent{} })
	return s
}

// Register maps eventType to a constructor of an empty event
func (s *EventSerializer) Register(eventType string, factory func() shared.DomainEvent) {
	s.mu.Lock()
	s.factories[eventType] = factory
	s.mu.Unlock()
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data into a fresh instance of eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ev := factory()
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	return ev, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes lists the known event types in lexical order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	s.mu.RUnlock()
	slices.Sort(types)
	return types
}

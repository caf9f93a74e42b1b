package shared

import "context"

// EventHandler reacts to committed domain events. Handlers are the audit
// log and the workflow counters; neither may block the request that
// produced the event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes filters delivery; empty means every event.
	EventTypes() []string
}

// EventPublisher is what application services depend on
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the process-wide dispatcher wired in main.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

package ports

import "context"

// EventPublisher emits order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NoopEventPublisher drops every event.
var NoopEventPublisher EventPublisher = noopEventPublisher{}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, string, any) error { return nil }

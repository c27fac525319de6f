package ports

import (
	"context"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

// Notifier is the fire-and-forget sink for user-facing error messages.
type Notifier interface {
	NotifyError(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) NotifyError(ctx context.Context, message string) { f(ctx, message) }

// EventPublisher ships committed cart changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event, snapshot domain.Cart) error
}

// NoopPublisher is a safe default when nothing consumes cart events.
var NoopPublisher EventPublisher = noopPublisher{}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ domain.Event, _ domain.Cart) error { return nil }

package ports

import "context"

// EventHandler reacts to one domain event. Errors are logged by the bus
// and never propagated to the publisher.
type EventHandler func(ctx context.Context, payload any) error

// EventBus decouples the reconciliation and sync engines from the
// listeners that react to a transition. Subscriptions are registered
// explicitly at the composition root.
type EventBus interface {
	Publish(ctx context.Context, event string, payload any)
	Subscribe(event string, handler EventHandler)
}

package pubsub

import (
	"context"
	"sync"

	"markethub-integration-layer/internal/ports"

	"github.com/rs/zerolog"
)

// EventBus is an in-process publish/subscribe fabric keyed by event name.
// Dispatch is synchronous and runs handlers in registration order; a
// handler error or panic is logged and does not stop the fan-out.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   zerolog.Logger
}

// NewEventBus creates an empty event bus.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name.
func (b *EventBus) Subscribe(event string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish delivers the payload to every handler registered for the event.
func (b *EventBus) Publish(ctx context.Context, event string, payload any) {
	b.mu.RLock()
	handlers := b.handlers[event]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, event, handler, payload)
	}
}

func (b *EventBus) dispatch(ctx context.Context, event string, handler ports.EventHandler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event", event).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()

	if err := handler(ctx, payload); err != nil {
		b.logger.Error().
			Err(err).
			Str("event", event).
			Msg("Event handler failed")
	}
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"github.com/aretw0/ripple/internal/logging"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
)

// group holds competing consumers sharing a queue name. Deliveries rotate
// round-robin so exactly one member receives any given event.
type group struct {
	members []ports.EventHandler
	next    int
}

// Bus implements ports.Transport and ports.Publisher in memory. Events are
// delivered synchronously on the publisher's goroutine, which makes handler
// failures visible to Publish callers. Intended for tests and single-process
// deployments.
type Bus struct {
	mu     sync.Mutex
	solo   map[string][]ports.EventHandler // eventType -> broadcast subscribers
	groups map[string]map[string]*group    // eventType -> queue -> group
	logger *slog.Logger
}

// BusOption configures the Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger for delivery errors.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus creates an in-memory event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		solo:   make(map[string][]ports.EventHandler),
		groups: make(map[string]map[string]*group),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for the given event types. A non-empty queue joins
// the competing-consumer group of that name.
func (b *Bus) Subscribe(ctx context.Context, eventTypes []string, queue string, h ports.EventHandler) error {
	if h == nil {
		return fmt.Errorf("memory bus: nil handler")
	}
	if len(eventTypes) == 0 {
		return fmt.Errorf("memory bus: no event types")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, et := range eventTypes {
		if queue == "" {
			b.solo[et] = append(b.solo[et], h)
			continue
		}
		byQueue, ok := b.groups[et]
		if !ok {
			byQueue = make(map[string]*group)
			b.groups[et] = byQueue
		}
		g, ok := byQueue[queue]
		if !ok {
			g = &group{}
			byQueue[queue] = g
		}
		g.members = append(g.members, h)
	}
	return nil
}

// Publish delivers ev to every broadcast subscriber and to one member of
// each queue group subscribed to its type. The first handler error is
// returned after all deliveries were attempted.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) error {
	handlers := b.pickHandlers(ev.Type)

	var firstErr error
	for _, h := range handlers {
		if _, err := h(ctx, ev); err != nil {
			b.logger.Warn("event delivery failed", "event_type", ev.Type, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// pickHandlers snapshots the delivery set under the lock, advancing each
// queue group's round-robin cursor.
func (b *Bus) pickHandlers(eventType string) []ports.EventHandler {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := append([]ports.EventHandler(nil), b.solo[eventType]...)
	for _, g := range b.groups[eventType] {
		if len(g.members) == 0 {
			continue
		}
		handlers = append(handlers, g.members[g.next%len(g.members)])
		g.next++
	}
	return handlers
}

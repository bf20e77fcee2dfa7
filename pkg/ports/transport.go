package ports

import (
	"context"

	"github.com/aretw0/ripple/pkg/domain"
)

// EventHandler processes one inbound event and returns the dispatch results
// for the commands it produced.
type EventHandler func(ctx context.Context, ev domain.Event) ([]DispatchResult, error)

// Transport defines the publish/subscribe boundary that delivers events to
// reactors. Delivery guarantees (ordering, redelivery) belong to the
// implementation, not to this interface.
type Transport interface {
	// Subscribe registers h for the given event types. Subscribers sharing
	// a non-empty queue name form a competing-consumer group: each event is
	// delivered to exactly one member of the group. An empty queue name
	// means every subscriber receives every event.
	Subscribe(ctx context.Context, eventTypes []string, queue string, h EventHandler) error
}

// Publisher is the producing side of a transport.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

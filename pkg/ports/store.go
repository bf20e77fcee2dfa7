package ports

import (
	"context"

	"github.com/aretw0/ripple/pkg/domain"
)

// SagaEventsOptions narrows a history read.
type SagaEventsOptions struct {
	// Before bounds the read to events with version strictly less than it.
	Before uint64

	// Except excludes the event with this ID from the result. Used to
	// de-duplicate at-least-once redelivery of the triggering event itself.
	Except string
}

// EventStore defines the interface for the durable event journal.
// Implementations must return history ordered ascending by version.
type EventStore interface {
	// SagaEvents retrieves historical events for a saga, ascending by
	// version, honoring the Before/Except options.
	SagaEvents(ctx context.Context, sagaID string, opts SagaEventsOptions) ([]domain.Event, error)

	// NewID allocates an identifier that is unique across all sagas.
	NewID(ctx context.Context) (string, error)

	// Append writes an event to the journal at (SagaID, SagaVersion).
	// Returns domain.ErrVersionConflict when the slot is already taken,
	// which is how the store enforces optimistic versioning on writes.
	Append(ctx context.Context, ev domain.Event) error
}

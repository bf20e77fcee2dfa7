package domain

import "strings"

// Event represents a domain event delivered to a saga reactor.
//
// SagaID and SagaVersion travel together: both present means the event
// continues an existing saga at the given version, both absent means the
// event starts a new saga. SagaVersion is a pointer so that an explicit
// version 0 can be told apart from an absent one on the wire.
type Event struct {
	// ID is unique per event. Used to de-duplicate redeliveries.
	ID string `json:"id,omitempty"`

	// Type identifies the kind of event (e.g. "order.placed").
	Type string `json:"type"`

	// SagaID is the saga this event belongs to (empty for saga-starting events).
	SagaID string `json:"sagaId,omitempty"`

	// SagaVersion is the version the saga is expected to hold when this
	// event is applied (nil for saga-starting events).
	SagaVersion *uint64 `json:"sagaVersion,omitempty"`

	// Context carries opaque causal metadata (correlation IDs, auth, trace).
	// The reactor stamps it onto every command the event produces.
	Context any `json:"context,omitempty"`

	// Payload holds event-specific data.
	Payload map[string]any `json:"payload,omitempty"`
}

// Continues reports whether the event targets an existing saga.
func (e Event) Continues() bool {
	return e.SagaID != ""
}

// Validate checks the structural invariants of an inbound event.
// It is called by the reactor before any I/O is performed.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return ErrMissingEventType
	}
	if e.SagaID != "" && e.SagaVersion == nil {
		return ErrMissingSagaVersion
	}
	return nil
}

// Version returns a pointer to v. Convenience for building continuing events.
func Version(v uint64) *uint64 {
	return &v
}

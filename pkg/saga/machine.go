package saga

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/ripple/pkg/domain"
)

// HandlerFunc defines the signature for a per-event-type mutation handler.
// It receives the live event and may mutate saga state and enqueue commands.
type HandlerFunc func(ctx context.Context, ev domain.Event) error

// Machine is the framework half of a saga: identity, a gapless version
// counter, the pending-command list, and the event-type handler table.
// Concrete sagas hold their own state and register handlers that close
// over it.
//
// A Machine is built fresh for every handled event and is not safe for
// concurrent use; serialization across events is the reactor's concern.
type Machine struct {
	id       string
	version  uint64
	pending  []domain.Command
	handlers map[string]HandlerFunc
}

// NewMachine creates a machine with no handlers registered.
func NewMachine(id string) *Machine {
	return &Machine{
		id:       id,
		handlers: make(map[string]HandlerFunc),
	}
}

// ID returns the saga identity. Immutable after construction.
func (m *Machine) ID() string {
	return m.id
}

// Version returns the number of events applied so far, replay included.
func (m *Machine) Version() uint64 {
	return m.version
}

// On registers the mutation handler for an event type.
// Registering the same type twice overwrites the previous handler.
func (m *Machine) On(eventType string, fn HandlerFunc) {
	m.handlers[eventType] = fn
}

// Handles reports whether a mutation handler is registered for the type.
func (m *Machine) Handles(eventType string) bool {
	_, ok := m.handlers[eventType]
	return ok
}

// Apply invokes the mutation handler registered for ev.Type and, on success,
// increments the version by exactly 1. The increment happens whether or not
// the handler enqueued commands.
func (m *Machine) Apply(ctx context.Context, ev domain.Event) error {
	fn, ok := m.handlers[ev.Type]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoHandler, ev.Type)
	}
	if err := fn(ctx, ev); err != nil {
		return fmt.Errorf("handler for %s failed: %w", ev.Type, err)
	}
	m.version++
	return nil
}

// Enqueue appends a command to the pending list, stamped with the current
// (pre-increment) version so downstream consumers can correlate it with the
// exact causal event ordinal. Context is added later by the reactor.
func (m *Machine) Enqueue(cmdType string, payload any) error {
	if strings.TrimSpace(cmdType) == "" {
		return domain.ErrMissingCommandType
	}
	m.pending = append(m.pending, domain.Command{
		SagaID:      m.id,
		SagaVersion: m.version,
		Type:        cmdType,
		Payload:     payload,
	})
	return nil
}

// PendingCommands returns an independent copy of the pending list.
func (m *Machine) PendingCommands() []domain.Command {
	out := make([]domain.Command, len(m.pending))
	copy(out, m.pending)
	return out
}

// resetPending clears the pending list. Called exactly once by Type.Build
// after history replay, so replay side effects are never re-dispatched.
func (m *Machine) resetPending() {
	m.pending = nil
}

package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ripple/pkg/domain"
)

// ErrNilFactory is returned when a Type has no New function.
var ErrNilFactory = errors.New("saga type has no factory")

// FactoryFunc constructs a fresh machine for the given saga ID with every
// mutation handler registered. It must not replay history; that is Build's job.
type FactoryFunc func(id string) (*Machine, error)

// Type describes a concrete saga kind: the event types it reacts to and how
// to construct an instance. Both "constructible type" and "plain factory"
// configuration shapes collapse to the New field.
type Type struct {
	// Name identifies the saga kind (used in logs and metrics).
	Name string

	// EventTypes lists the event types instances of this saga handle.
	// The reactor subscribes to exactly this set.
	EventTypes []string

	// New builds a fresh instance with handlers registered.
	New FactoryFunc
}

// Params carries the construction input: the saga identity and, for
// continuing sagas, the history to replay.
type Params struct {
	ID      string
	History []domain.Event
}

// Validate checks the descriptor once, at registration time: a factory must
// be present, the event-type set must be non-empty, and every declared type
// must have a handler on a built instance.
func (t Type) Validate() error {
	if t.New == nil {
		return fmt.Errorf("saga type %q: %w", t.Name, ErrNilFactory)
	}
	if len(t.EventTypes) == 0 {
		return fmt.Errorf("saga type %q: no event types declared", t.Name)
	}
	probe, err := t.New("probe")
	if err != nil {
		return fmt.Errorf("saga type %q: probe construction failed: %w", t.Name, err)
	}
	return t.checkCoverage(probe)
}

func (t Type) checkCoverage(m *Machine) error {
	for _, et := range t.EventTypes {
		if !m.Handles(et) {
			return fmt.Errorf("saga type %q: %w: %s", t.Name, domain.ErrNoHandler, et)
		}
	}
	return nil
}

// Build is the normalized create(params) capability: it constructs an
// instance, verifies handler coverage, replays the supplied history in order,
// and discards any commands the replay produced. After Build returns, the
// machine's version equals len(params.History) and its pending list is empty.
func (t Type) Build(ctx context.Context, params Params) (*Machine, error) {
	if t.New == nil {
		return nil, fmt.Errorf("saga type %q: %w", t.Name, ErrNilFactory)
	}

	m, err := t.New(params.ID)
	if err != nil {
		return nil, fmt.Errorf("saga type %q: construction failed: %w", t.Name, err)
	}
	if err := t.checkCoverage(m); err != nil {
		return nil, err
	}

	for _, ev := range params.History {
		if err := m.Apply(ctx, ev); err != nil {
			return nil, fmt.Errorf("replay of saga %s failed: %w", params.ID, err)
		}
	}

	// History side effects were already dispatched in a previous life.
	m.resetPending()

	return m, nil
}

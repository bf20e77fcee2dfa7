package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/google/uuid"
)

// Store implements ports.EventStore in memory.
// Safe for concurrent use.
type Store struct {
	sagas map[string][]domain.Event
	mu    sync.RWMutex
}

// NewStore creates a new in-memory event store.
func NewStore() *Store {
	return &Store{
		sagas: make(map[string][]domain.Event),
	}
}

// SagaEvents returns historical events ascending by version, honoring the
// Before/Except options.
func (s *Store) SagaEvents(ctx context.Context, sagaID string, opts ports.SagaEventsOptions) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy on read so callers can't mutate store state through the slice.
	out := make([]domain.Event, 0, len(s.sagas[sagaID]))
	for _, ev := range s.sagas[sagaID] {
		if *ev.SagaVersion >= opts.Before {
			continue
		}
		if opts.Except != "" && ev.ID == opts.Except {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// NewID allocates a fresh saga identifier.
func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Append writes an event to the journal, enforcing one event per
// (saga, version) slot.
func (s *Store) Append(ctx context.Context, ev domain.Event) error {
	if err := validateAppend(ev); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.sagas[ev.SagaID]
	for _, existing := range events {
		if *existing.SagaVersion == *ev.SagaVersion {
			return domain.ErrVersionConflict
		}
	}
	events = append(events, ev)
	sort.Slice(events, func(i, j int) bool {
		return *events[i].SagaVersion < *events[j].SagaVersion
	})
	s.sagas[ev.SagaID] = events
	return nil
}

func validateAppend(ev domain.Event) error {
	if ev.SagaID == "" {
		return errors.New("append requires a saga id")
	}
	if ev.SagaVersion == nil {
		return domain.ErrMissingSagaVersion
	}
	return nil
}

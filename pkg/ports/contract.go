package ports

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/ripple/pkg/domain"
)

// RunEventStoreContract verifies that an adapter complies with the EventStore
// semantics: unique ID allocation, version-ordered reads, Before/Except
// filtering, and optimistic append.
func RunEventStoreContract(t *testing.T, store EventStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("NewID_Unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			id, err := store.NewID(ctx)
			if err != nil {
				t.Fatalf("NewID failed: %v", err)
			}
			if id == "" {
				t.Fatal("NewID returned empty identifier")
			}
			if seen[id] {
				t.Fatalf("NewID returned duplicate identifier %q", id)
			}
			seen[id] = true
		}
	})

	t.Run("SagaEvents_Empty", func(t *testing.T) {
		events, err := store.SagaEvents(ctx, "contract-unknown", SagaEventsOptions{Before: 10})
		if err != nil && !errors.Is(err, domain.ErrSagaNotFound) {
			t.Fatalf("unexpected error for unknown saga: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no events for unknown saga, got %d", len(events))
		}
	})

	t.Run("Append_And_Read_Ordered", func(t *testing.T) {
		sagaID := "contract-ordered"
		for v := uint64(0); v < 4; v++ {
			ev := domain.Event{
				ID:          fmt.Sprintf("%s-e%d", sagaID, v),
				Type:        "contract.step",
				SagaID:      sagaID,
				SagaVersion: domain.Version(v),
			}
			if err := store.Append(ctx, ev); err != nil {
				t.Fatalf("Append v=%d failed: %v", v, err)
			}
		}

		events, err := store.SagaEvents(ctx, sagaID, SagaEventsOptions{Before: 3})
		if err != nil {
			t.Fatalf("SagaEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events before version 3, got %d", len(events))
		}
		for i, ev := range events {
			if ev.SagaVersion == nil || *ev.SagaVersion != uint64(i) {
				t.Errorf("event %d out of order: version %v", i, ev.SagaVersion)
			}
		}
	})

	t.Run("SagaEvents_Except", func(t *testing.T) {
		events, err := store.SagaEvents(ctx, "contract-ordered", SagaEventsOptions{
			Before: 4,
			Except: "contract-ordered-e2",
		})
		if err != nil {
			t.Fatalf("SagaEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events with exclusion, got %d", len(events))
		}
		for _, ev := range events {
			if ev.ID == "contract-ordered-e2" {
				t.Error("excluded event was returned")
			}
		}
	})

	t.Run("Append_VersionConflict", func(t *testing.T) {
		ev := domain.Event{
			ID:          "contract-conflict-dup",
			Type:        "contract.step",
			SagaID:      "contract-ordered",
			SagaVersion: domain.Version(1),
		}
		err := store.Append(ctx, ev)
		if !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("Append_RequiresSagaBinding", func(t *testing.T) {
		err := store.Append(ctx, domain.Event{ID: "x", Type: "contract.step"})
		if err == nil {
			t.Error("expected error appending an event without saga binding")
		}
	})
}

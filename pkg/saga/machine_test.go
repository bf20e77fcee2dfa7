package saga_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/saga"
)

func TestMachine_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("Increments Version Per Event", func(t *testing.T) {
		m := saga.NewMachine("s1")
		m.On("thing.happened", func(ctx context.Context, ev domain.Event) error {
			return nil
		})

		for i := 0; i < 3; i++ {
			if err := m.Apply(ctx, domain.Event{Type: "thing.happened"}); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
		}

		if m.Version() != 3 {
			t.Errorf("Expected version 3, got %d", m.Version())
		}
	})

	t.Run("Increments Even Without Enqueue", func(t *testing.T) {
		m := saga.NewMachine("s1")
		m.On("silent", func(ctx context.Context, ev domain.Event) error {
			return nil
		})

		if err := m.Apply(ctx, domain.Event{Type: "silent"}); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if m.Version() != 1 {
			t.Errorf("Expected version 1, got %d", m.Version())
		}
		if len(m.PendingCommands()) != 0 {
			t.Errorf("Expected no pending commands")
		}
	})

	t.Run("No Handler", func(t *testing.T) {
		m := saga.NewMachine("s1")

		err := m.Apply(ctx, domain.Event{Type: "unknown"})
		if !errors.Is(err, domain.ErrNoHandler) {
			t.Errorf("Expected ErrNoHandler, got %v", err)
		}
		if m.Version() != 0 {
			t.Errorf("Version must not advance on failure, got %d", m.Version())
		}
	})

	t.Run("Handler Error Propagates Without Increment", func(t *testing.T) {
		boom := errors.New("boom")
		m := saga.NewMachine("s1")
		m.On("explode", func(ctx context.Context, ev domain.Event) error {
			return boom
		})

		err := m.Apply(ctx, domain.Event{Type: "explode"})
		if !errors.Is(err, boom) {
			t.Errorf("Expected wrapped handler error, got %v", err)
		}
		if m.Version() != 0 {
			t.Errorf("Version must not advance on failure, got %d", m.Version())
		}
	})
}

func TestMachine_Enqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Stamps Pre-Increment Version", func(t *testing.T) {
		m := saga.NewMachine("s1")
		m.On("step", func(ctx context.Context, ev domain.Event) error {
			return m.Enqueue("next", map[string]any{"x": 1})
		})

		// Advance to version 2 first.
		for i := 0; i < 2; i++ {
			if err := m.Apply(ctx, domain.Event{Type: "step"}); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
		}

		cmds := m.PendingCommands()
		if len(cmds) != 2 {
			t.Fatalf("Expected 2 commands, got %d", len(cmds))
		}
		// The command enqueued while version was V carries V, not V+1.
		if cmds[0].SagaVersion != 0 || cmds[1].SagaVersion != 1 {
			t.Errorf("Expected versions [0 1], got [%d %d]", cmds[0].SagaVersion, cmds[1].SagaVersion)
		}
		if cmds[0].SagaID != "s1" {
			t.Errorf("Expected sagaId s1, got %s", cmds[0].SagaID)
		}
	})

	t.Run("Requires Command Type", func(t *testing.T) {
		m := saga.NewMachine("s1")
		if err := m.Enqueue("  ", nil); !errors.Is(err, domain.ErrMissingCommandType) {
			t.Errorf("Expected ErrMissingCommandType, got %v", err)
		}
	})
}

func TestMachine_PendingCommands_Isolation(t *testing.T) {
	m := saga.NewMachine("s1")
	if err := m.Enqueue("cmd", nil); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	cmds := m.PendingCommands()
	cmds[0].Type = "mutated"

	if got := m.PendingCommands()[0].Type; got != "cmd" {
		t.Errorf("Accessor must return an independent copy, got %s", got)
	}
}

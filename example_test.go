package ripple_test

import (
	"context"
	"fmt"

	"github.com/aretw0/ripple"
	"github.com/aretw0/ripple/pkg/domain"
)

// orderSaga tracks an order through placement and payment.
type orderSaga struct {
	sku  string
	paid bool
}

func Example() {
	typ := ripple.SagaType{
		Name:       "order",
		EventTypes: []string{"order.placed", "order.paid"},
		New: func(id string) (*ripple.Machine, error) {
			s := &orderSaga{}
			m := ripple.NewMachine(id)
			m.On("order.placed", func(ctx context.Context, ev ripple.Event) error {
				s.sku, _ = ev.Payload["sku"].(string)
				return m.Enqueue("reserve-stock", map[string]any{"sku": s.sku})
			})
			m.On("order.paid", func(ctx context.Context, ev ripple.Event) error {
				s.paid = true
				return m.Enqueue("ship-order", map[string]any{"sku": s.sku})
			})
			return m, nil
		},
	}

	stack, err := ripple.NewStack(typ)
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	// A new saga: no sagaId, so the reactor allocates one.
	if err := stack.Bus.Publish(ctx, ripple.Event{
		ID:      "e1",
		Type:    "order.placed",
		Payload: map[string]any{"sku": "A-1"},
	}); err != nil {
		panic(err)
	}

	sent := stack.Dispatcher.Sent()
	sagaID := sent[0].SagaID

	// The host owns the journal: record the handled event so later events
	// can replay it.
	if err := stack.Store.Append(ctx, ripple.Event{
		ID:          "e1",
		Type:        "order.placed",
		SagaID:      sagaID,
		SagaVersion: domain.Version(0),
		Payload:     map[string]any{"sku": "A-1"},
	}); err != nil {
		panic(err)
	}

	// Continue the saga at the version the next event observed.
	if err := stack.Bus.Publish(ctx, ripple.Event{
		ID:          "e2",
		Type:        "order.paid",
		SagaID:      sagaID,
		SagaVersion: domain.Version(1),
	}); err != nil {
		panic(err)
	}

	for _, cmd := range stack.Dispatcher.Sent() {
		fmt.Printf("%s at version %d\n", cmd.Type, cmd.SagaVersion)
	}
	// Output:
	// reserve-stock at version 0
	// ship-order at version 1
}

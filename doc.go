/*
Package ripple is an event-sourced saga reactor: it receives domain events,
rebuilds the stateful process ("saga") that reacts to them by replaying its
history, applies the live event, and forwards every command the saga produces
to a downstream dispatcher.

It follows a Hexagonal Architecture: the core (pkg/reactor, pkg/saga) is
decoupled from infrastructure through ports (pkg/ports), with in-memory,
Redis, and SQLite adapters provided (pkg/adapters).

# Concept

A saga is identified by an ID and versioned by the count of events applied to
it. Events either start a new saga (no saga binding) or continue an existing
one at a declared version. For continuing events the reactor loads all prior
events below that version from the event store and replays them through the
saga's mutation handlers; commands produced during replay are discarded, so
only the live event causes dispatches. Commands carry the saga version at the
moment they were enqueued, which lets downstream consumers correlate each
command with the exact causal event.

# Usage

	orderSaga := ripple.SagaType{
		Name:       "order",
		EventTypes: []string{"order.placed"},
		New: func(id string) (*saga.Machine, error) {
			m := ripple.NewMachine(id)
			m.On("order.placed", func(ctx context.Context, ev ripple.Event) error {
				return m.Enqueue("payment.charge", ev.Payload)
			})
			return m, nil
		},
	}

	stack, err := ripple.NewStack(orderSaga)
	if err != nil {
		log.Fatal(err)
	}

	err = stack.Bus.Publish(ctx, ripple.Event{ID: "e1", Type: "order.placed"})

Production hosts replace the in-memory stack with the Redis Streams transport
and the Redis or SQLite event store; see pkg/adapters and cmd/ripple.
*/
package ripple

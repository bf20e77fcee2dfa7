/*
Package saga implements the saga state machine and its factory.

A saga is a stateful process that reacts to domain events and emits commands.
The Machine supplies the framework-enforced parts (identity, the gapless
version counter, the pending-command list, event-type dispatch); concrete
sagas register mutation handlers that close over their own state:

	func NewOrderSaga(id string) (*saga.Machine, error) {
		var order struct{ Total int }
		m := saga.NewMachine(id)
		m.On("order.placed", func(ctx context.Context, ev domain.Event) error {
			order.Total = 1
			return m.Enqueue("payment.charge", ev.Payload)
		})
		return m, nil
	}

A Type bundles the factory with the event types it handles. Type.Build is the
single construction path: it replays history through Apply and discards the
commands the replay produced, so only live events cause dispatches.
*/
package saga

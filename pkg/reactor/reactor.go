package reactor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/ripple/internal/logging"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/aretw0/ripple/pkg/saga"
	"github.com/aretw0/ripple/pkg/sequencer"
)

var (
	// ErrMissingStore is returned by New when no event store is configured.
	ErrMissingStore = errors.New("reactor: missing event store")

	// ErrMissingDispatcher is returned by New when no command dispatcher is configured.
	ErrMissingDispatcher = errors.New("reactor: missing command dispatcher")

	// ErrNoEventTypes is returned by New when the handled event types cannot
	// be determined from either the config or the saga type's declaration.
	ErrNoEventTypes = errors.New("reactor: no handled event types")

	// ErrMissingTransport is returned by Subscribe when the transport is nil.
	ErrMissingTransport = errors.New("reactor: missing transport")
)

// Config carries the required collaborators for a Reactor.
type Config struct {
	// Type describes the saga kind this reactor drives.
	Type saga.Type

	// Store is the event journal used to restore continuing sagas and to
	// allocate identities for new ones.
	Store ports.EventStore

	// Dispatcher receives every command the saga produces.
	Dispatcher ports.CommandDispatcher

	// QueueName groups reactor instances into a competing-consumer set on
	// the transport. Optional; empty means broadcast delivery.
	QueueName string

	// EventTypes overrides Type.EventTypes when non-empty. Lets tests and
	// deployments narrow or re-declare the subscription set explicitly.
	EventTypes []string
}

// Option configures a Reactor.
type Option func(*Reactor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reactor) {
		r.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Reactor) {
		r.hooks = hooks
	}
}

// WithLocker enables distributed per-saga locking, extending serialization
// across reactor replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Reactor) {
		r.lockerOpts = append(r.lockerOpts, sequencer.WithLocker(locker))
	}
}

// Reactor receives domain events, reconstructs or creates the saga that
// reacts to them, advances its state, and fans the produced commands out to
// the dispatcher.
//
// Concurrent Handle calls for the same saga ID are serialized in-process by
// a keyed sequencer; cross-instance serialization requires WithLocker or
// saga-affine routing by the transport.
type Reactor struct {
	typ        saga.Type
	store      ports.EventStore
	dispatcher ports.CommandDispatcher
	queue      string
	eventTypes []string

	seq        *sequencer.Sequencer
	lockerOpts []sequencer.Option
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// New validates the configuration and builds a Reactor. It fails fast when a
// required collaborator is missing or when the saga type's declared handlers
// do not cover the handled event types.
func New(cfg Config, opts ...Option) (*Reactor, error) {
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}
	if cfg.Dispatcher == nil {
		return nil, ErrMissingDispatcher
	}

	eventTypes := cfg.EventTypes
	if len(eventTypes) == 0 {
		eventTypes = cfg.Type.EventTypes
	}
	if len(eventTypes) == 0 {
		return nil, ErrNoEventTypes
	}

	// Registration-time coverage check: every handled type must have a
	// mutation handler on a freshly built instance.
	typ := cfg.Type
	typ.EventTypes = eventTypes
	if err := typ.Validate(); err != nil {
		return nil, err
	}

	r := &Reactor{
		typ:        typ,
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		queue:      cfg.QueueName,
		eventTypes: eventTypes,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.seq = sequencer.New(append(r.lockerOpts, sequencer.WithLogger(r.logger))...)

	return r, nil
}

// EventTypes returns the event types this reactor subscribes to.
func (r *Reactor) EventTypes() []string {
	out := make([]string, len(r.eventTypes))
	copy(out, r.eventTypes)
	return out
}

// Subscribe registers Handle as the master handler for the reactor's event
// types on the transport, grouped under the configured queue name.
func (r *Reactor) Subscribe(ctx context.Context, t ports.Transport) error {
	if t == nil {
		return ErrMissingTransport
	}
	return t.Subscribe(ctx, r.eventTypes, r.queue, r.Handle)
}

// Handle processes one inbound event:
//
//  1. Validate the event (no I/O on failure).
//  2. Restore the saga from history (continuing) or allocate a fresh
//     identity (new).
//  3. Apply the live event.
//  4. Stamp the event's context onto every pending command.
//  5. Dispatch all commands concurrently and await completion.
//
// The returned results are ordered as the commands were enqueued. A failed
// dispatch fails the call but does not roll back dispatched siblings.
func (r *Reactor) Handle(ctx context.Context, ev domain.Event) ([]ports.DispatchResult, error) {
	start := time.Now()

	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	he := &domain.HandleEvent{
		EventID:    ev.ID,
		EventType:  ev.Type,
		SagaID:     ev.SagaID,
		Continuing: ev.Continues(),
	}
	if r.hooks.OnEventReceived != nil {
		r.hooks.OnEventReceived(ctx, he)
	}

	var results []ports.DispatchResult
	var err error
	if ev.Continues() {
		// Serialize processing per saga ID: two events racing for the same
		// saga would otherwise replay from the same prior state and emit
		// commands with colliding versions.
		err = r.seq.WithLock(ctx, ev.SagaID, func(ctx context.Context) error {
			var innerErr error
			results, innerErr = r.process(ctx, ev, he)
			return innerErr
		})
	} else {
		results, err = r.process(ctx, ev, he)
	}

	if r.hooks.OnHandleComplete != nil {
		r.hooks.OnHandleComplete(ctx, &domain.CompleteEvent{
			HandleEvent: *he,
			Commands:    len(results),
			Duration:    time.Since(start),
			Err:         err,
		})
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// process runs the fixed three-phase pipeline: fetch-or-allocate,
// construct-and-apply, concurrent dispatch.
func (r *Reactor) process(ctx context.Context, ev domain.Event, he *domain.HandleEvent) ([]ports.DispatchResult, error) {
	var m *saga.Machine

	if ev.Continues() {
		history, err := r.store.SagaEvents(ctx, ev.SagaID, ports.SagaEventsOptions{
			Before: *ev.SagaVersion,
			Except: ev.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load history for saga %s: %w", ev.SagaID, err)
		}

		m, err = r.typ.Build(ctx, saga.Params{ID: ev.SagaID, History: history})
		if err != nil {
			return nil, err
		}

		r.logger.DebugContext(ctx, "saga restored",
			"saga_id", ev.SagaID,
			"replayed", len(history),
		)
		if r.hooks.OnSagaRestored != nil {
			r.hooks.OnSagaRestored(ctx, &domain.RestoreEvent{SagaID: ev.SagaID, Replayed: len(history)})
		}
	} else {
		id, err := r.store.NewID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate saga id: %w", err)
		}
		he.SagaID = id

		m, err = r.typ.Build(ctx, saga.Params{ID: id})
		if err != nil {
			return nil, err
		}
	}

	if err := m.Apply(ctx, ev); err != nil {
		return nil, err
	}

	cmds := m.PendingCommands()
	for i := range cmds {
		// Causal-context propagation: every command inherits the context of
		// the event that produced it.
		cmds[i].Context = ev.Context
	}

	return r.dispatch(ctx, cmds)
}

// dispatch fans commands out concurrently and collects results in enqueue
// order. All dispatches run to completion even when one fails.
func (r *Reactor) dispatch(ctx context.Context, cmds []domain.Command) ([]ports.DispatchResult, error) {
	results := make([]ports.DispatchResult, len(cmds))
	errs := make([]error, len(cmds))

	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		go func(i int, cmd domain.Command) {
			defer wg.Done()
			results[i], errs[i] = r.dispatcher.SendRaw(ctx, cmd)
			if r.hooks.OnCommandDispatched != nil {
				r.hooks.OnCommandDispatched(ctx, &domain.DispatchEvent{
					SagaID:      cmd.SagaID,
					SagaVersion: cmd.SagaVersion,
					CommandType: cmd.Type,
					Err:         errs[i],
				})
			}
		}(i, cmd)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return results, fmt.Errorf("command dispatch failed: %w", err)
	}
	return results, nil
}

package ripple

import (
	"context"
	"fmt"

	"github.com/aretw0/ripple/pkg/adapters/memory"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/reactor"
	"github.com/aretw0/ripple/pkg/saga"
)

// Version is the library version reported by the CLI.
const Version = "0.1.0"

// Commonly used types, re-exported so simple hosts only import ripple.
type (
	// Event is a domain event delivered to a reactor.
	Event = domain.Event
	// Command is a side-effect request emitted by a saga.
	Command = domain.Command
	// SagaType describes a concrete saga kind.
	SagaType = saga.Type
	// Machine is the framework half of a saga instance.
	Machine = saga.Machine
	// Reactor orchestrates saga restore, apply, and command fan-out.
	Reactor = reactor.Reactor
)

// NewMachine creates an empty saga state machine. See package saga.
var NewMachine = saga.NewMachine

// Stack bundles a reactor with in-memory collaborators. It is the quickest
// way to run sagas in tests and single-process hosts; production deployments
// wire the redis or sqlite adapters through reactor.New instead.
type Stack struct {
	Reactor    *reactor.Reactor
	Store      *memory.Store
	Bus        *memory.Bus
	Dispatcher *memory.Dispatcher
}

// NewStack wires an in-memory store, bus, and dispatcher around a reactor
// for the given saga type and subscribes the reactor under the "default"
// queue group.
func NewStack(typ saga.Type, opts ...reactor.Option) (*Stack, error) {
	store := memory.NewStore()
	dispatcher := memory.NewDispatcher()

	r, err := reactor.New(reactor.Config{
		Type:       typ,
		Store:      store,
		Dispatcher: dispatcher,
		QueueName:  "default",
	}, opts...)
	if err != nil {
		return nil, err
	}

	bus := memory.NewBus()
	if err := r.Subscribe(context.Background(), bus); err != nil {
		return nil, fmt.Errorf("failed to subscribe reactor: %w", err)
	}

	return &Stack{
		Reactor:    r,
		Store:      store,
		Bus:        bus,
		Dispatcher: dispatcher,
	}, nil
}

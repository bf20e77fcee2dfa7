package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
)

// ForwardFunc receives each dispatched command. Optional; used to bridge the
// dispatcher to a real downstream (e.g. publishing commands onto a bus).
type ForwardFunc func(ctx context.Context, cmd domain.Command) (any, error)

// Dispatcher implements ports.CommandDispatcher in memory. It records every
// dispatched command and optionally forwards it. Safe for concurrent use,
// which matters because the reactor fans commands out in parallel.
type Dispatcher struct {
	mu      sync.Mutex
	sent    []domain.Command
	forward ForwardFunc
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithForward bridges dispatched commands to fn.
func WithForward(fn ForwardFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.forward = fn
	}
}

// NewDispatcher creates an in-memory command dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendRaw records the command and forwards it when a ForwardFunc is set.
func (d *Dispatcher) SendRaw(ctx context.Context, cmd domain.Command) (ports.DispatchResult, error) {
	var ack any
	if d.forward != nil {
		var err error
		ack, err = d.forward(ctx, cmd)
		if err != nil {
			return ports.DispatchResult{}, err
		}
	}

	d.mu.Lock()
	d.sent = append(d.sent, cmd)
	d.mu.Unlock()

	return ports.DispatchResult{Command: cmd, Ack: ack}, nil
}

// Sent returns a copy of every command dispatched so far.
func (d *Dispatcher) Sent() []domain.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Command, len(d.sent))
	copy(out, d.sent)
	return out
}

// Reset clears the recorded commands.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = nil
}

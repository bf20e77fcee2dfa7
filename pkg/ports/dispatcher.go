package ports

import (
	"context"

	"github.com/aretw0/ripple/pkg/domain"
)

// DispatchResult is the downstream acknowledgement for one command.
type DispatchResult struct {
	// Command is the command that was dispatched.
	Command domain.Command

	// Ack is whatever the dispatcher returned for it (implementation specific).
	Ack any
}

// CommandDispatcher defines how commands produced by sagas are forwarded.
// The reactor emits commands, and the host implements this interface to
// deliver them at-least-once to downstream handlers.
type CommandDispatcher interface {
	SendRaw(ctx context.Context, cmd domain.Command) (DispatchResult, error)
}

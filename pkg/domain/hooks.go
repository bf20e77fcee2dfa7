package domain

import (
	"context"
	"time"
)

// HandleEvent describes one reactor invocation for observability purposes.
type HandleEvent struct {
	// EventID is the ID of the inbound event (may be empty).
	EventID string
	// EventType is the type of the inbound event.
	EventType string
	// SagaID is the saga the event was routed to (allocated ID for new sagas).
	SagaID string
	// Continuing is true when the event targeted an existing saga.
	Continuing bool
}

// RestoreEvent describes a saga reconstruction from history.
type RestoreEvent struct {
	SagaID string
	// Replayed is the number of historical events applied.
	Replayed int
}

// DispatchEvent describes one command dispatch.
type DispatchEvent struct {
	SagaID      string
	SagaVersion uint64
	CommandType string
	// Err is non-nil when the dispatch failed.
	Err error
}

// CompleteEvent describes a finished Handle call.
type CompleteEvent struct {
	HandleEvent
	// Commands is the number of commands dispatched.
	Commands int
	// Duration is the wall time of the whole call.
	Duration time.Duration
	// Err is non-nil when the call failed.
	Err error
}

// LifecycleHooks defines callbacks for reactor observability.
// All hooks are optional; nil hooks are skipped.
type LifecycleHooks struct {
	OnEventReceived     func(context.Context, *HandleEvent)
	OnSagaRestored      func(context.Context, *RestoreEvent)
	OnCommandDispatched func(context.Context, *DispatchEvent)
	OnHandleComplete    func(context.Context, *CompleteEvent)
}

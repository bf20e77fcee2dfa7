package domain

import "errors"

// ErrMissingEventType is returned when an event carries no type.
var ErrMissingEventType = errors.New("missing event type")

// ErrMissingSagaVersion is returned when an event names a saga but not the
// version it expects the saga to be at.
var ErrMissingSagaVersion = errors.New("saga id present without saga version")

// ErrNoHandler is returned when a saga receives an event type it has no
// mutation handler registered for.
var ErrNoHandler = errors.New("no handler for event type")

// ErrMissingCommandType is returned when a saga enqueues a command without a type.
var ErrMissingCommandType = errors.New("missing command type")

// ErrVersionConflict is returned by event stores when an append targets a
// (saga, version) slot that is already occupied.
var ErrVersionConflict = errors.New("saga version conflict")

// ErrSagaNotFound is returned by event stores when a saga ID is unknown.
var ErrSagaNotFound = errors.New("saga not found")

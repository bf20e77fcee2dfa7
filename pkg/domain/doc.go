/*
Package domain contains the core domain models for the Ripple saga reactor.

It defines the fundamental entities of event-driven process management:
Events (facts delivered to sagas), Commands (side-effect requests emitted by
sagas), sentinel errors, and lifecycle hooks. This package is kept pure and
free of external I/O, following Hexagonal Architecture principles.

# Key Entities

  - Event: an immutable fact, optionally bound to a saga at a given version.
  - Command: a side-effect request stamped with the causal saga version.
  - LifecycleHooks: observability callbacks emitted by the reactor.
*/
package domain

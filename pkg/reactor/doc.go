/*
Package reactor contains the saga reactor: the orchestrator between an event
transport, an event journal, and a command dispatcher.

For every inbound event the reactor builds a fresh saga instance (replaying
history for continuing sagas, allocating an identity for new ones), applies
the live event, stamps the event's causal context onto the produced commands,
and fans them out to the dispatcher concurrently. Nothing is retried and
nothing is swallowed; every failure surfaces to the caller of Handle.
*/
package reactor

/*
Package observability provides Prometheus instrumentation for the Ripple reactor.

The Collector plugs into domain.LifecycleHooks and records handled events,
dispatched commands, replay depth, and handle latency. Register its metrics
with any prometheus.Registerer and expose them via promhttp.
*/
package observability

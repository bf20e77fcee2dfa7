package observability

import (
	"context"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the reactor metrics and produces the lifecycle hooks that
// feed them.
type Collector struct {
	eventsHandled      *prometheus.CounterVec
	commandsDispatched *prometheus.CounterVec
	replayDepth        prometheus.Histogram
	handleDuration     *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ripple_events_handled_total",
				Help: "Total number of events handled by the reactor",
			},
			[]string{"event_type", "outcome"},
		),
		commandsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ripple_commands_dispatched_total",
				Help: "Total number of commands dispatched",
			},
			[]string{"command_type", "outcome"},
		),
		replayDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ripple_saga_replay_depth",
				Help:    "Number of historical events replayed per saga restore",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		handleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ripple_handle_duration_seconds",
				Help:    "Duration of reactor Handle calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event_type"},
		),
	}
	reg.MustRegister(c.eventsHandled, c.commandsDispatched, c.replayDepth, c.handleDuration)
	return c
}

// Hooks returns lifecycle hooks wired to the collector's metrics.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSagaRestored: func(_ context.Context, e *domain.RestoreEvent) {
			c.replayDepth.Observe(float64(e.Replayed))
		},
		OnCommandDispatched: func(_ context.Context, e *domain.DispatchEvent) {
			c.commandsDispatched.WithLabelValues(e.CommandType, outcome(e.Err)).Inc()
		},
		OnHandleComplete: func(_ context.Context, e *domain.CompleteEvent) {
			c.eventsHandled.WithLabelValues(e.EventType, outcome(e.Err)).Inc()
			c.handleDuration.WithLabelValues(e.EventType).Observe(e.Duration.Seconds())
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

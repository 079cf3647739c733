// Package metrics exposes the pantry daemon's Prometheus instruments:
// plan throughput, task outcomes, and suspension/confirmation counts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlansStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "plans_started_total",
		Help:      "Number of plans that began execution.",
	})

	PlansCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "plans_completed_total",
		Help:      "Number of plans that reached a terminal outcome, by outcome.",
	}, []string{"outcome"})

	TaskDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "task_dispatches_total",
		Help:      "Number of task dispatch attempts, by tool and result.",
	}, []string{"tool", "result"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pantry",
		Name:      "task_duration_seconds",
		Help:      "Duration of a single task's tool invocation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	ConfirmationsRequested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pantry",
		Name:      "confirmations_requested_total",
		Help:      "Number of ambiguity confirmations raised, by kind.",
	}, []string{"kind"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pantry",
		Name:      "active_sessions",
		Help:      "Current number of live sessions in the session store.",
	})

	ProgressSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pantry",
		Name:      "progress_subscribers",
		Help:      "Current number of connected progress-stream subscribers.",
	})
)

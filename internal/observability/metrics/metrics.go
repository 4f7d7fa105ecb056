// Package metrics exposes Prometheus collectors for the reminder engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const metricPrefix = "sandogh_"

var (
	// RemindersSent counts reminder messages dispatched, labelled by stage
	// ("7d", "3d", "1d", "due").
	RemindersSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "reminders_sent_total",
		Help: "Reminder messages sent, by stage",
	}, []string{"stage"})

	// SendFailures counts notifier delivery failures.
	SendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "reminder_send_failures_total",
		Help: "Telegram delivery failures during reminder sweeps",
	})

	// SweepDuration observes how long each reminder sweep takes.
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricPrefix + "reminder_sweep_seconds",
		Help:    "Duration of reminder sweeps",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// SweepsSkipped counts ticks skipped because a sweep was still running.
	SweepsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "reminder_sweeps_skipped_total",
		Help: "Sweep ticks skipped by the non-reentrant guard",
	})

	// OverdueDigests counts overdue digest deliveries (one per day at most).
	OverdueDigests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "overdue_digests_sent_total",
		Help: "Overdue digest deliveries",
	})
)

// Register registers all collectors on the default registry. Call once from
// main; the collectors work unregistered in tests.
func Register() {
	prometheus.MustRegister(RemindersSent, SendFailures, SweepDuration, SweepsSkipped, OverdueDigests)
}

package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reminder scheduler. A nil
// *Metrics disables instrumentation (tests).
type Metrics struct {
	RemindersArmed        prometheus.Gauge
	RemindersFiredTotal   prometheus.Counter
	DispatchFailedTotal   prometheus.Counter
	SkippedPastDueTotal   prometheus.Counter
	ResyncDurationSeconds prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RemindersArmed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reminders_armed",
				Help:      "Current number of armed reminder timers",
			},
		),
		RemindersFiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_fired_total",
				Help:      "Total number of reminders dispatched",
			},
		),
		DispatchFailedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_dispatch_failed_total",
				Help:      "Total number of failed reminder dispatches",
			},
		),
		SkippedPastDueTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_skipped_past_due_total",
				Help:      "Total number of reminders skipped because their fire-time had passed",
			},
		),
		ResyncDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reminder_resync_duration_seconds",
				Help:      "Time to run a full resync pass",
				Buckets:   []float64{.0001, .001, .01, .05, .1, .5, 1},
			},
		),
	}
}

func (m *Metrics) SetArmed(count int) {
	m.RemindersArmed.Set(float64(count))
}

func (m *Metrics) IncFired() {
	m.RemindersFiredTotal.Inc()
}

func (m *Metrics) IncDispatchFailed() {
	m.DispatchFailedTotal.Inc()
}

func (m *Metrics) IncSkippedPastDue() {
	m.SkippedPastDueTotal.Inc()
}

func (m *Metrics) ObserveResyncDuration(seconds float64) {
	m.ResyncDurationSeconds.Observe(seconds)
}

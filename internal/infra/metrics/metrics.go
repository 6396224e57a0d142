// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"time"

	"course_trigger_engine/internal/app"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "course_trigger"

// Metrics holds the collectors updated after every pass.
type Metrics struct {
	Runs               *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	SchedulesProcessed prometheus.Counter
	SchedulesFired     prometheus.Counter
	InvalidSchedules   prometheus.Gauge
	NotificationsSent  prometheus.Counter
	NotificationErrors prometheus.Counter
	ModulesPublished   prometheus.Counter
	PublicationErrors  prometheus.Counter
	LastRunTimestamp   prometheus.Gauge
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Number of trigger passes by outcome",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of trigger passes",
			Buckets:   prometheus.DefBuckets,
		}),
		SchedulesProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "processed_total",
			Help:      "Enabled schedules examined",
		}),
		SchedulesFired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "fired_total",
			Help:      "Schedules that fanned out a message",
		}),
		InvalidSchedules: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "schedules",
			Name:      "invalid",
			Help:      "Enabled schedules with an unparseable expression in the last pass",
		}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Deliveries accepted by the channel",
		}),
		NotificationErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "errors_total",
			Help:      "Failed deliveries and schedule-level errors",
		}),
		ModulesPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "modules",
			Name:      "published_total",
			Help:      "Modules flipped from DRAFT to PUBLISHED",
		}),
		PublicationErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "modules",
			Name:      "publication_errors_total",
			Help:      "Modules that failed to publish",
		}),
		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_timestamp_seconds",
			Help:      "Unix time of the last completed pass",
		}),
	}
}

// ObserveRun records one pass.
func (m *Metrics) ObserveRun(_ context.Context, s app.RunSummary, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "fatal"
	case s.HasErrors():
		outcome = "partial"
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe((time.Duration(s.DurationMs) * time.Millisecond).Seconds())
	m.SchedulesProcessed.Add(float64(s.NotificationsProcessed))
	m.SchedulesFired.Add(float64(s.SchedulesFired))
	m.InvalidSchedules.Set(float64(s.InvalidSchedules))
	m.NotificationsSent.Add(float64(s.NotificationsSent))
	m.NotificationErrors.Add(float64(s.NotificationErrors))
	m.ModulesPublished.Add(float64(s.UnitsPublished))
	m.PublicationErrors.Add(float64(s.PublicationErrors))
	m.LastRunTimestamp.Set(float64(time.Now().Unix()))
}

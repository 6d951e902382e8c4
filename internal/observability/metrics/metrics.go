// Package metrics provides Prometheus metrics for the scheduling engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	AppointmentsBooked      prometheus.Counter
	AppointmentsRescheduled prometheus.Counter
	AppointmentsCancelled   prometheus.Counter
	AppointmentsCompleted   prometheus.Counter
	ScheduleCommits         prometheus.Counter
	ConflictsDetected       prometheus.Counter
	SlotsPruned             prometheus.Counter
}

// New creates and registers all metrics. Call once per process.
func New() *Metrics {
	m := &Metrics{
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_booked_total",
			Help: "Total appointments booked",
		}),
		AppointmentsRescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_rescheduled_total",
			Help: "Total appointments rescheduled",
		}),
		AppointmentsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_cancelled_total",
			Help: "Total appointments cancelled",
		}),
		AppointmentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_completed_total",
			Help: "Total appointments completed",
		}),
		ScheduleCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_commits_total",
			Help: "Total weekly schedule commits",
		}),
		ConflictsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_conflicts_detected_total",
			Help: "Total conflicting appointments reported by previews",
		}),
		SlotsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slots_pruned_total",
			Help: "Total past-dated available slots removed by the prune worker",
		}),
	}

	prometheus.MustRegister(
		m.AppointmentsBooked,
		m.AppointmentsRescheduled,
		m.AppointmentsCancelled,
		m.AppointmentsCompleted,
		m.ScheduleCommits,
		m.ConflictsDetected,
		m.SlotsPruned,
	)

	return m
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TasksCreated    prometheus.Counter
	TaskTransitions *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_tasks_created_total",
			Help: "Total number of tasks created",
		}),
		TaskTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_task_transitions_total",
			Help: "Task state transitions by edge and outcome",
		}, []string{"from", "to", "outcome"}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_notifications_total",
			Help: "Completion notification attempts by outcome",
		}, []string{"outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// RecordTaskCreated increments the tasks created counter by 1.
func (m *Metrics) RecordTaskCreated() {
	if m == nil {
		return
	}
	m.TasksCreated.Inc()
}

// RecordTransition records the outcome of a transition attempt for an edge.
func (m *Metrics) RecordTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.TaskTransitions.WithLabelValues(from, to, outcome).Inc()
}

// RecordNotification records a notification attempt outcome ("ok", "error" or "dropped").
func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

// ObserveRequest records a request latency sample for a route.
func (m *Metrics) ObserveRequest(route, method string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}

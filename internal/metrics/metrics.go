// Package metrics provides Prometheus collectors for care activity, task
// generation, weather lookups and HTTP handling.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	careActionsTotal    *prometheus.CounterVec
	tasksGeneratedTotal prometheus.Counter
	tasksCreatedTotal   prometheus.Counter
	tasksCompletedTotal *prometheus.CounterVec
	weatherLookupsTotal *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry.
func New() (*Metrics, error) {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates the collectors and registers them on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.careActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_care_actions_total",
			Help: "Total number of recorded care actions",
		},
		[]string{"action"},
	)

	m.tasksGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantcare_tasks_generated_total",
		Help: "Total number of task upserts emitted by generation",
	})

	m.tasksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantcare_tasks_created_total",
		Help: "Total number of task rows inserted by generation",
	})

	m.tasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_tasks_completed_total",
			Help: "Total number of completed tasks",
		},
		[]string{"type"},
	)

	m.weatherLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_weather_lookups_total",
			Help: "Total number of weather lookups by outcome",
		},
		[]string{"outcome"}, // hit, miss, error
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_http_requests_total",
			Help: "Total number of handled HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantcare_http_request_duration_seconds",
			Help:    "Time taken to handle HTTP requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.careActionsTotal.Describe(ch)
	m.tasksGeneratedTotal.Describe(ch)
	m.tasksCreatedTotal.Describe(ch)
	m.tasksCompletedTotal.Describe(ch)
	m.weatherLookupsTotal.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.careActionsTotal.Collect(ch)
	m.tasksGeneratedTotal.Collect(ch)
	m.tasksCreatedTotal.Collect(ch)
	m.tasksCompletedTotal.Collect(ch)
	m.weatherLookupsTotal.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}

// RecordCareAction counts one care event of the given type.
func (m *Metrics) RecordCareAction(action string) {
	if m == nil {
		return
	}
	m.careActionsTotal.WithLabelValues(action).Inc()
}

// RecordGeneration counts emitted upserts and actually inserted rows.
func (m *Metrics) RecordGeneration(emitted, created int) {
	if m == nil {
		return
	}
	m.tasksGeneratedTotal.Add(float64(emitted))
	m.tasksCreatedTotal.Add(float64(created))
}

// RecordTaskCompleted counts a task transitioning to completed.
func (m *Metrics) RecordTaskCompleted(taskType string) {
	if m == nil {
		return
	}
	m.tasksCompletedTotal.WithLabelValues(taskType).Inc()
}

// ObserveWeatherLookup counts a weather lookup outcome.
func (m *Metrics) ObserveWeatherLookup(outcome string) {
	if m == nil {
		return
	}
	m.weatherLookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "factor_ops"

// Recorder groups the service's collectors. A nil *Recorder records nothing.
type Recorder struct {
	transitions     *prometheus.CounterVec
	postings        *prometheus.CounterVec
	concludeLatency *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_transitions_total",
			Help:      "Factor operation status transitions, by target status and outcome.",
		}, []string{"to", "outcome"}),
		postings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_total",
			Help:      "Posting attempts during settlement, by kind and whether a new posting was created.",
		}, []string{"kind", "created"}),
		concludeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conclude_duration_seconds",
			Help:      "Duration of ConcludeOperation calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(r.transitions, r.postings, r.concludeLatency, r.httpRequests, r.httpLatency)
	return r
}

// Transition counts a status transition attempt. outcome is "applied", "noop" or "error".
func (r *Recorder) Transition(to, outcome string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(to, outcome).Inc()
}

// Posting counts a posting attempt.
func (r *Recorder) Posting(kind string, created bool) {
	if r == nil {
		return
	}
	r.postings.WithLabelValues(kind, strconv.FormatBool(created)).Inc()
}

// Conclude observes the duration of a conclude call. result is "completed", "idempotent" or "error".
func (r *Recorder) Conclude(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.concludeLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

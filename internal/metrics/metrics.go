// Package metrics holds the Prometheus collectors of the Auvo client.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the client's metrics. A nil *Collector is valid and
// records nothing, so callers never need to check whether metrics are on.
type Collector struct {
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	SignInsTotal         *prometheus.CounterVec
	ReauthReplaysTotal   prometheus.Counter
	ExportMessagesTotal  *prometheus.CounterVec
	ExportPublishLatency *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg returns a nil Collector.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		return nil
	}

	factory := promauto.With(reg)

	return &Collector{
		// Tracks the number of outbound API calls to Auvo.
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auvo_api_requests_total",
				Help: "Total number of Auvo API requests made (by endpoint, method and status).",
			},
			[]string{"endpoint", "method", "status"},
		),
		// Measures duration of API requests to Auvo.
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auvo_api_request_duration_seconds",
				Help:    "Duration of Auvo API requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
			},
			[]string{"endpoint", "method"},
		),
		SignInsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auvo_sign_ins_total",
				Help: "Total number of sign-in attempts.",
			},
			[]string{"result"}, // ok | error
		),
		ReauthReplaysTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "auvo_reauth_replays_total",
				Help: "Requests replayed after a 401 triggered a new sign-in.",
			},
		),
		ExportMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auvo_export_messages_total",
				Help: "Total number of exported entities by subject and result.",
			},
			[]string{"subject", "result"},
		),
		ExportPublishLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auvo_export_publish_latency_seconds",
				Help:    "Time taken to publish one exported entity.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"subject"},
		),
	}
}

// ObserveRequest counts one request attempt and records its duration.
// status 0 stands for a transport failure.
func (c *Collector) ObserveRequest(path, method string, status int, start time.Time) {
	if c == nil {
		return
	}

	endpoint := EndpointLabel(path)
	statusLabel := "error"

	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}

	c.RequestsTotal.WithLabelValues(endpoint, method, statusLabel).Inc()
	c.RequestDuration.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
}

// IncSignIn counts a sign-in attempt.
func (c *Collector) IncSignIn(ok bool) {
	if c == nil {
		return
	}

	c.SignInsTotal.WithLabelValues(result(ok)).Inc()
}

// IncReauthReplay counts a 401 replay.
func (c *Collector) IncReauthReplay() {
	if c == nil {
		return
	}

	c.ReauthReplaysTotal.Inc()
}

// ObserveExport counts one exported entity and records the publish latency.
func (c *Collector) ObserveExport(subject string, ok bool, start time.Time) {
	if c == nil {
		return
	}

	c.ExportMessagesTotal.WithLabelValues(subject, result(ok)).Inc()
	c.ExportPublishLatency.WithLabelValues(subject).Observe(time.Since(start).Seconds())
}

// EndpointLabel reduces a request path to its collection ("/tasks/42" →
// "/tasks") to keep label cardinality bounded.
func EndpointLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}

	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return "/" + trimmed
}

func result(ok bool) string {
	if ok {
		return "ok"
	}

	return "error"
}

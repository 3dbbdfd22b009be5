package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	eventsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabletctl",
			Subsystem: "transport",
			Name:      "events_total",
			Help:      "Events sent to the tablet driver.",
		},
		[]string{"event", "priority", "outcome"},
	)
	eventDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabletctl",
			Subsystem: "transport",
			Name:      "event_duration_seconds",
			Help:      "Send to reply duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"event", "outcome"},
	)
	eventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabletctl",
			Subsystem: "driversim",
			Name:      "events_handled_total",
			Help:      "Events handled by the simulated driver.",
		},
		[]string{"event", "code"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabletctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"bundle_id", "method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tabletctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"bundle_id", "method", "route", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(eventsSent, eventDuration, eventsHandled, httpRequests, httpDuration)
	})
}

// RecordSend counts one send attempt. outcome is one of "ok", "remote_error",
// "timeout", "cancelled", "transport_error" and "rejected".
func RecordSend(event, priority, outcome string, duration time.Duration) {
	RegisterMetrics()
	eventsSent.WithLabelValues(event, priority, outcome).Inc()
	eventDuration.WithLabelValues(event, outcome).Observe(duration.Seconds())
}

func RecordHandled(event string, code int32) {
	RegisterMetrics()
	eventsHandled.WithLabelValues(event, strconv.FormatInt(int64(code), 10)).Inc()
}

func RecordHTTPRequest(bundleID, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(bundleID, method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(bundleID, method, route, statusLabel).Observe(duration.Seconds())
}

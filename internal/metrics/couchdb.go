package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CouchDB client Prometheus metrics.
var (
	CouchDBRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "couchman",
			Subsystem: "couchdb",
			Name:      "requests_total",
			Help:      "Total number of CouchDB requests by endpoint and outcome",
		},
		[]string{"op", "code"},
	)

	CouchDBRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "couchman",
			Subsystem: "couchdb",
			Name:      "request_duration_seconds",
			Help:      "CouchDB request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)
)

var couchMetricsOnce sync.Once

// RegisterCouchDBMetrics registers the CouchDB client metrics on the default registry.
func RegisterCouchDBMetrics() {
	couchMetricsOnce.Do(func() {
		prometheus.MustRegister(CouchDBRequestsTotal, CouchDBRequestDuration)
	})
}

// CodeLabel converts a response status into a metric label ("transport" for network failures).
func CodeLabel(status int) string {
	switch {
	case status == 0:
		return "transport"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

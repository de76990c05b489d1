package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// registered reports whether c is already on the default registry, leaving
// the registry as it found it.
func registered(c prometheus.Collector) bool {
	err := prometheus.DefaultRegisterer.Register(c)
	if err == nil {
		prometheus.DefaultRegisterer.Unregister(c)
		return false
	}
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}

func TestRegister_ExplicitOnly(t *testing.T) {
	collectors := map[string]prometheus.Collector{
		"http_request_duration_seconds":    httpRequestDuration,
		"http_requests_total":              httpRequestsTotal,
		"http_requests_in_flight":          httpInFlight,
		"couchdb_requests_total":           CouchDBRequestsTotal,
		"couchdb_request_duration_seconds": CouchDBRequestDuration,
	}
	for name, c := range collectors {
		if registered(c) {
			t.Fatalf("%s registered on import", name)
		}
	}

	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
	RegisterCouchDBMetrics()
	RegisterCouchDBMetrics()

	for name, c := range collectors {
		if !registered(c) {
			t.Errorf("%s not registered after Register*Metrics", name)
		}
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/databases/{db}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/databases/users", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/databases/{db}", "200"))
	if val < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", val)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Delete("/conflict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	tests := []struct {
		method, path, status string
	}{
		{"GET", "/missing", "404"},
		{"DELETE", "/conflict", "409"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, http.NoBody))

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if val < 1 {
				t.Errorf("expected requests_total for %s %s >= 1, got %f", tc.method, tc.path, val)
			}
		})
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/x", func(w http.ResponseWriter, _ *http.Request) {
		if v := testutil.ToFloat64(httpInFlight); v < 1 {
			t.Errorf("expected in-flight >= 1 during request, got %f", v)
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("expected in-flight 0 after request, got %f", v)
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if got := routeLabel(req); got != "unknown" {
		t.Errorf("routeLabel = %q, want unknown", got)
	}
}

func TestCodeLabel(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, "transport"},
		{201, "2xx"},
		{304, "3xx"},
		{409, "4xx"},
		{503, "5xx"},
	}
	for _, tc := range tests {
		if got := CodeLabel(tc.status); got != tc.want {
			t.Errorf("CodeLabel(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/couchman/internal/db/couchdb"
)

func credsHandler(got *couchdb.Credentials, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = couchdb.CredentialsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuthPassthrough_NoHeader(t *testing.T) {
	var got couchdb.Credentials
	var found bool
	handler := BasicAuthPassthrough()(credsHandler(&got, &found))

	req := httptest.NewRequest("GET", "/api/databases", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if found {
		t.Error("no credentials should be forwarded")
	}
}

func TestBasicAuthPassthrough_ForwardsCredentials(t *testing.T) {
	var got couchdb.Credentials
	var found bool
	handler := BasicAuthPassthrough()(credsHandler(&got, &found))

	req := httptest.NewRequest("GET", "/api/databases", http.NoBody)
	req.SetBasicAuth("admin", "s3cret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if !found || got.Username != "admin" || got.Password != "s3cret" {
		t.Errorf("unexpected credentials %+v (found=%v)", got, found)
	}
}

func TestBasicAuthPassthrough_WrongScheme_401(t *testing.T) {
	var got couchdb.Credentials
	var found bool
	handler := BasicAuthPassthrough()(credsHandler(&got, &found))

	req := httptest.NewRequest("GET", "/api/databases", http.NoBody)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeUnauthorized {
		t.Errorf("code = %q, want %q", errResp.Code, CodeUnauthorized)
	}
}

func TestBasicAuthPassthrough_MalformedBasic_401(t *testing.T) {
	var got couchdb.Credentials
	var found bool
	handler := BasicAuthPassthrough()(credsHandler(&got, &found))

	req := httptest.NewRequest("GET", "/api/databases", http.NoBody)
	req.Header.Set("Authorization", "Basic !!notbase64")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestBasicAuthPassthrough_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/metrics"} {
		var got couchdb.Credentials
		var found bool
		handler := BasicAuthPassthrough()(credsHandler(&got, &found))

		req := httptest.NewRequest("GET", path, http.NoBody)
		req.Header.Set("Authorization", "Bearer whatever")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
		if found {
			t.Errorf("%s: credentials should not be forwarded", path)
		}
	}
}

func TestBasicAuthPassthrough_HealthForwardsCredentials(t *testing.T) {
	var got couchdb.Credentials
	var found bool
	handler := BasicAuthPassthrough()(credsHandler(&got, &found))

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	req.SetBasicAuth("operator", "pw")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !found || got.Username != "operator" || got.Password != "pw" {
		t.Errorf("expected operator credentials on /health, got %+v (found=%v)", got, found)
	}
}

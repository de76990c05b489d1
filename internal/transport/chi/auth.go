package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/couchman/internal/db/couchdb"
)

// exemptPaths are routes that never carry operator credentials.
// /health is not one: it verifies access with whatever the caller sends.
var exemptPaths = map[string]struct{}{
	"/metrics": {},
}

// BasicAuthPassthrough forwards HTTP Basic credentials of each request to
// CouchDB through the request context. Nothing is verified or stored here;
// CouchDB decides. Requests without credentials use the server defaults.
func BasicAuthPassthrough() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				if !strings.HasPrefix(strings.ToLower(auth), "basic ") {
					writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Basic scheme")
					return
				}
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "malformed basic credentials")
				return
			}

			ctx := couchdb.ContextWithCredentials(r.Context(), couchdb.Credentials{Username: user, Password: pass})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

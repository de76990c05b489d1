package couchdb

import (
	"context"
	"net/http"
)

// exchange records what happened on the wire during one store call.
type exchange struct {
	status int
	err    error
}

type exchangeKey struct{}

func withExchange(ctx context.Context, ex *exchange) context.Context {
	return context.WithValue(ctx, exchangeKey{}, ex)
}

// transport applies Basic credentials and the User-Agent to every request.
// Credentials from the request context win over the configured ones.
type transport struct {
	base      http.RoundTripper
	username  string
	password  string
	userAgent string
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	user, password := t.username, t.password
	if c, ok := CredentialsFromContext(req.Context()); ok {
		user, password = c.Username, c.Password
	}
	out.Header.Del("Authorization")
	if user != "" || password != "" {
		out.SetBasicAuth(user, password)
	}
	if t.userAgent != "" {
		out.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.base.RoundTrip(out)

	if ex, ok := req.Context().Value(exchangeKey{}).(*exchange); ok {
		if err != nil {
			ex.err = err
		} else {
			ex.status = resp.StatusCode
			ex.err = nil
		}
	}
	return resp, err
}

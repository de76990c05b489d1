package couchman

import (
	"context"

	"github.com/kailas-cloud/couchman/internal/db/couchdb"
	healthuc "github.com/kailas-cloud/couchman/internal/usecase/health"
)

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // "couchdb", "access" → "ok"/"error"/"skipped"
}

// Health pings the server and checks that the credentials are accepted.
// Without configured or context credentials, access is reported as skipped.
func (c *Client) Health(ctx context.Context) HealthStatus {
	var report healthuc.Report
	if _, ok := couchdb.CredentialsFromContext(ctx); ok || c.hasCredentials {
		report = c.healthSvc.Check(ctx)
	} else {
		report = c.healthSvc.CheckServer(ctx)
	}
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// ContextWithCredentials makes calls with ctx authenticate as username
// instead of the client's configured credentials. Proxies use it to act on
// behalf of the operator of each request.
func ContextWithCredentials(ctx context.Context, username, password string) context.Context {
	return couchdb.ContextWithCredentials(ctx, couchdb.Credentials{Username: username, Password: password})
}

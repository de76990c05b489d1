package health

import (
	"context"
	"errors"

	"github.com/kailas-cloud/couchman/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the server answers but rejects the credentials.
	Degraded Status = "degraded"
	// Unhealthy indicates the server is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates a check that could not run: it depends on a
	// failed one or there are no credentials to verify.
	CheckSkipped CheckResult = "skipped"
)

// Check names.
const (
	CheckCouchDB = "couchdb"
	CheckAccess  = "access"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	server ServerPinger
	access AccessChecker
}

// New creates a Service. access can be nil.
func New(server ServerPinger, access AccessChecker) *Service {
	return &Service{server: server, access: access}
}

// Check pings CouchDB and, when it answers, verifies access by listing databases.
// A server that rejects the credentials on GET / is up; only access fails.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	err := s.server.Ping(ctx)
	switch {
	case err == nil:
		checks[CheckCouchDB] = CheckOK
	case errors.Is(err, domain.ErrUnauthorized):
		checks[CheckCouchDB] = CheckOK
		if s.access != nil {
			checks[CheckAccess] = CheckError
		}
		return Report{Status: Degraded, Checks: checks}
	default:
		checks[CheckCouchDB] = CheckError
		if s.access != nil {
			checks[CheckAccess] = CheckSkipped
		}
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	if s.access != nil {
		if _, err := s.access.List(ctx); err != nil {
			checks[CheckAccess] = CheckError
			status = Degraded
		} else {
			checks[CheckAccess] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}

// CheckServer pings CouchDB and reports access as skipped. It is used when
// no credentials are available, where an access failure says nothing.
func (s *Service) CheckServer(ctx context.Context) Report {
	checks := map[string]CheckResult{CheckAccess: CheckSkipped}

	if err := s.server.Ping(ctx); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		checks[CheckCouchDB] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[CheckCouchDB] = CheckOK
	return Report{Status: Healthy, Checks: checks}
}

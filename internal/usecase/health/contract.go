package health

import "context"

// ServerPinger checks that CouchDB answers. A domain.ErrUnauthorized error
// means the server answered and rejected the credentials.
type ServerPinger interface {
	Ping(ctx context.Context) error
}

// AccessChecker checks that the configured credentials are accepted.
type AccessChecker interface {
	List(ctx context.Context) ([]string, error)
}

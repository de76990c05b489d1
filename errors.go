package couchman

import "github.com/kailas-cloud/couchman/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConnection   = domain.ErrConnection
	ErrUnauthorized = domain.ErrUnauthorized
	ErrNotFound     = domain.ErrNotFound
	ErrConflict     = domain.ErrConflict
	ErrValidation   = domain.ErrValidation
	ErrInvalidJSON  = domain.ErrInvalidJSON
	ErrIDChanged    = domain.ErrIDChanged
	ErrServer       = domain.ErrServer
)

// RevisionConflictError reports a write rejected for a stale or missing _rev.
// It matches ErrConflict; use errors.As to read the id and revision.
type RevisionConflictError = domain.RevisionConflictError

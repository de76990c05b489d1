// Package repository translates CouchDB store errors into domain errors.
package repository

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/domain"
)

var mappings = []struct {
	from error
	to   error
}{
	{db.ErrUnavailable, domain.ErrConnection},
	{db.ErrUnauthorized, domain.ErrUnauthorized},
	{db.ErrForbidden, domain.ErrUnauthorized},
	{db.ErrBadRequest, domain.ErrValidation},
	{db.ErrNotFound, domain.ErrNotFound},
	{db.ErrConflict, domain.ErrConflict},
	{db.ErrPreconditionFailed, domain.ErrConflict},
	{db.ErrDecode, domain.ErrServer},
	{db.ErrUnexpectedStatus, domain.ErrServer},
}

// MapError wraps a store error with the matching domain sentinel.
// The original error stays in the chain for its CouchDB reason.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range mappings {
		if errors.Is(err, m.from) {
			return fmt.Errorf("%w: %w", m.to, err)
		}
	}
	return err
}

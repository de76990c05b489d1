package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection signals a network failure or an unreachable server.
	ErrConnection = errors.New("connection failed")
	// ErrUnauthorized signals rejected credentials or missing permissions.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound signals a missing database, index or document.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals an existing resource or a stale revision.
	ErrConflict = errors.New("conflict")
	// ErrValidation signals input the server would reject (or did reject).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidJSON signals editor text that is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrIDChanged signals a save whose _id differs from the open document.
	ErrIDChanged = errors.New("document id changed")
	// ErrServer signals an unexpected server-side failure.
	ErrServer = errors.New("server error")
)

// RevisionConflictError wraps ErrConflict with the revision the client sent.
type RevisionConflictError struct {
	ID       string
	Revision string
}

func (e *RevisionConflictError) Error() string {
	if e.Revision == "" {
		return fmt.Sprintf("%s: document %q already exists", ErrConflict.Error(), e.ID)
	}
	return fmt.Sprintf("%s: revision %s of document %q is stale", ErrConflict.Error(), e.Revision, e.ID)
}

func (e *RevisionConflictError) Unwrap() error { return ErrConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(id, revision string) error {
	return &RevisionConflictError{ID: id, Revision: revision}
}

package db

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for CouchDB calls.
var (
	ErrUnavailable        = errors.New("db: server unavailable")
	ErrBadRequest         = errors.New("db: bad request")
	ErrUnauthorized       = errors.New("db: unauthorized")
	ErrForbidden          = errors.New("db: forbidden")
	ErrNotFound           = errors.New("db: not found")
	ErrConflict           = errors.New("db: conflict")
	ErrPreconditionFailed = errors.New("db: precondition failed")
	ErrUnexpectedStatus   = errors.New("db: unexpected status")
	ErrDecode             = errors.New("db: malformed response")
)

// Op constants name the CouchDB endpoints for error context and metrics.
const (
	OpServerInfo     = "GET /"
	OpAllDBs         = "GET /_all_dbs"
	OpCreateDB       = "PUT /{db}"
	OpDeleteDB       = "DELETE /{db}"
	OpListIndexes    = "GET /{db}/_index"
	OpCreateIndex    = "POST /{db}/_index"
	OpDeleteIndex    = "DELETE /{db}/_index/{ddoc}/json/{name}"
	OpAllDocs        = "GET /{db}/_all_docs"
	OpGetDocument    = "GET /{db}/{id}"
	OpPutDocument    = "PUT /{db}/{id}"
	OpDeleteDocument = "DELETE /{db}/{id}"
)

// Error wraps an underlying error with the operation, the HTTP status and
// the reason CouchDB gave.
type Error struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return e.Op + ": " + e.Err.Error()
	case e.Reason == "":
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	default:
		return fmt.Sprintf("%s: status %d (%s): %v", e.Op, e.Status, e.Reason, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, or 0 when no response arrived.
func (e *Error) StatusCode() int { return e.Status }

// SentinelForStatus maps an HTTP status to a sentinel error.
func SentinelForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusPreconditionFailed:
		return ErrPreconditionFailed
	default:
		return ErrUnexpectedStatus
	}
}

// Answered reports whether err came with an HTTP response from the server,
// as opposed to a transport failure.
func Answered(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status != 0
}

// Retryable reports whether a call may succeed once the server finishes
// starting: no response at all, or a 5xx.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Status >= http.StatusInternalServerError {
		return true
	}
	return errors.Is(err, ErrUnavailable)
}

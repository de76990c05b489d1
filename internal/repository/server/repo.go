// Package server reads the CouchDB welcome document.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/repository"
)

// readinessStore is the part of db.Store the readiness wait needs.
type readinessStore interface {
	db.ServerStore
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Repo implements the health usecase's ServerPinger.
type Repo struct {
	store readinessStore
}

// New creates a server repository.
func New(s readinessStore) *Repo {
	return &Repo{store: s}
}

// Ping checks that the server answers GET / with the current credentials.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return repository.MapError(err)
	}
	return nil
}

// Info returns the server welcome document.
func (r *Repo) Info(ctx context.Context) (db.ServerInfo, error) {
	info, err := r.store.Info(ctx)
	if err != nil {
		return db.ServerInfo{}, fmt.Errorf("server info: %w", repository.MapError(err))
	}
	return info, nil
}

// WaitForReady waits until the server answers. A rejection of the
// credentials returns at once as domain.ErrUnauthorized.
func (r *Repo) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if err := r.store.WaitForReady(ctx, timeout); err != nil {
		return repository.MapError(err)
	}
	return nil
}

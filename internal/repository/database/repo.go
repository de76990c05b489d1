package database

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/repository"
)

// Repo implements usecase/database.Repository.
type Repo struct {
	store db.DatabaseStore
}

// New creates a database repository.
func New(s db.DatabaseStore) *Repo {
	return &Repo{store: s}
}

// List returns all database names.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	names, err := r.store.AllDBs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", repository.MapError(err))
	}
	return names, nil
}

// Create creates a database.
func (r *Repo) Create(ctx context.Context, name string) error {
	if err := r.store.CreateDB(ctx, name); err != nil {
		return fmt.Errorf("create database %s: %w", name, repository.MapError(err))
	}
	return nil
}

// Delete deletes a database.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.DestroyDB(ctx, name); err != nil {
		return fmt.Errorf("delete database %s: %w", name, repository.MapError(err))
	}
	return nil
}

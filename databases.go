package couchman

import (
	"context"
	"fmt"
	"time"
)

// DatabaseService manages databases.
type DatabaseService struct {
	svc databaseUseCase
	obs *observer
}

// List returns all database names, system databases included. Any failure,
// rejected credentials included, matches ErrConnection.
func (s *DatabaseService) List(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("database.list", "", start, err) }()

	names, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}

// Create creates a database and, unless disabled, its "<name>_idx" index on _id.
// An existing database matches ErrConflict; an invalid name ErrValidation.
func (s *DatabaseService) Create(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("database.create", name, start, err) }()

	if err := s.svc.Create(ctx, name); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}

// Delete deletes a database.
func (s *DatabaseService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("database.delete", name, start, err) }()

	if err := s.svc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	return nil
}

// DeleteMany deletes each named database and reports every outcome.
func (s *DatabaseService) DeleteMany(ctx context.Context, names []string) []BulkResult {
	start := time.Now()
	results := fromInternalResults(s.svc.DeleteMany(ctx, names))
	s.obs.observe("database.delete_many", "", start, firstError(results))
	return results
}

// DeleteAll deletes every database the server lists.
func (s *DatabaseService) DeleteAll(ctx context.Context) (_ []BulkResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("database.delete_all", "", start, err) }()

	results, err := s.svc.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete all databases: %w", err)
	}
	out := fromInternalResults(results)
	return out, firstError(out)
}

func firstError(results []BulkResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

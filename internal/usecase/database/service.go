package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/couchman/internal/domain"
	"github.com/kailas-cloud/couchman/internal/domain/batch"
	domdb "github.com/kailas-cloud/couchman/internal/domain/database"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

// DefaultIndexSuffix names the index created alongside a new database ("<db>_idx").
const DefaultIndexSuffix = "_idx"

// Service manages databases.
type Service struct {
	repo         Repository
	indexes      IndexCreator
	defaultIndex bool
	logger       *zap.Logger
}

// New creates a database service. indexes may be nil, which disables the default index.
func New(repo Repository, indexes IndexCreator) *Service {
	return &Service{
		repo:         repo,
		indexes:      indexes,
		defaultIndex: indexes != nil,
		logger:       zap.NewNop(),
	}
}

// WithDefaultIndex toggles creation of the "<db>_idx" index on _id after Create.
func (s *Service) WithDefaultIndex(enabled bool) *Service {
	s.defaultIndex = enabled && s.indexes != nil
	return s
}

// WithLogger sets the logger used for non-fatal failures.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// List returns all database names. Any failure, auth included, is a connection failure.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrConnection) {
			err = fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		return nil, err
	}
	return names, nil
}

// Create validates the name, creates the database and, when enabled, its default index.
// A failing default index is logged and does not fail the call.
func (s *Service) Create(ctx context.Context, name string) error {
	if err := domdb.ValidateName(name); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, name); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	if s.defaultIndex {
		idx, err := domidx.New(name+DefaultIndexSuffix, []domidx.Field{{Name: "_id"}})
		if err == nil {
			_, err = s.indexes.Create(ctx, name, idx, "")
		}
		if err != nil {
			s.logger.Warn("default index not created",
				zap.String("database", name),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Delete deletes a database. System databases (leading underscore) are allowed.
func (s *Service) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	return nil
}

// DeleteMany deletes each database in order and reports a result per name.
// One failure does not stop the remaining deletions.
func (s *Service) DeleteMany(ctx context.Context, names []string) []batch.Result {
	results := make([]batch.Result, 0, len(names))
	for _, name := range names {
		if err := s.Delete(ctx, name); err != nil {
			results = append(results, batch.NewError(name, err))
			continue
		}
		results = append(results, batch.NewOK(name))
	}
	return results
}

// DeleteAll deletes every database the server lists.
func (s *Service) DeleteAll(ctx context.Context) ([]batch.Result, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.DeleteMany(ctx, names), nil
}

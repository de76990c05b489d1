package index

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/domain"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

// Service manages Mango indexes.
type Service struct {
	repo Repository
}

// New creates an index service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the indexes of a database.
func (s *Service) List(ctx context.Context, database string) ([]domidx.Index, error) {
	if database == "" {
		return nil, fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	idxs, err := s.repo.List(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return idxs, nil
}

// Rows returns the tabular rendering of List.
func (s *Service) Rows(ctx context.Context, database string) ([]domidx.Row, error) {
	idxs, err := s.List(ctx, database)
	if err != nil {
		return nil, err
	}
	rows := make([]domidx.Row, len(idxs))
	for i, idx := range idxs {
		rows[i] = idx.Row()
	}
	return rows, nil
}

// Create creates an index over fields. An empty field list fails before any network call.
func (s *Service) Create(ctx context.Context, database, name string, fields []domidx.Field) (domidx.Index, error) {
	if database == "" {
		return domidx.Index{}, fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	idx, err := domidx.New(name, fields)
	if err != nil {
		return domidx.Index{}, err
	}
	created, err := s.repo.Create(ctx, database, idx, "")
	if err != nil {
		return domidx.Index{}, fmt.Errorf("create index: %w", err)
	}
	return created, nil
}

// CreateFromText parses comma-separated field text ("a, b:desc") and creates the index.
func (s *Service) CreateFromText(ctx context.Context, database, name, fieldsText string) (domidx.Index, error) {
	fields, err := domidx.ParseFields(fieldsText)
	if err != nil {
		return domidx.Index{}, err
	}
	return s.Create(ctx, database, name, fields)
}

// Delete deletes an index; ddoc may be given with or without the _design/ prefix.
func (s *Service) Delete(ctx context.Context, database, ddoc, name string) error {
	if database == "" || ddoc == "" || name == "" {
		return fmt.Errorf("database, design document and index name are required: %w", domain.ErrValidation)
	}
	if err := s.repo.Delete(ctx, database, ddoc, name); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}

package couchman

import (
	"context"
	"fmt"
	"time"
)

// IndexService manages the Mango indexes of one database.
type IndexService struct {
	database string
	svc      indexUseCase
	obs      *observer
}

// List returns the indexes of the database, the built-in _all_docs index included.
func (s *IndexService) List(ctx context.Context) (_ []IndexInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index.list", s.database, start, err) }()

	idxs, err := s.svc.List(ctx, s.database)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	out := make([]IndexInfo, len(idxs))
	for i, idx := range idxs {
		out[i] = fromInternalIndex(idx)
	}
	return out, nil
}

// Rows returns List in tabular form.
func (s *IndexService) Rows(ctx context.Context) (_ []IndexRow, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index.rows", s.database, start, err) }()

	rows, err := s.svc.Rows(ctx, s.database)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return rows, nil
}

// Create creates a JSON index. An empty field list fails with ErrValidation
// before any request is made.
func (s *IndexService) Create(ctx context.Context, name string, fields ...IndexField) (_ IndexInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index.create", s.database, start, err) }()

	idx, err := s.svc.Create(ctx, s.database, name, toInternalFields(fields))
	if err != nil {
		return IndexInfo{}, fmt.Errorf("create index: %w", err)
	}
	return fromInternalIndex(idx), nil
}

// CreateFromText creates an index from field text such as "city, age:desc".
func (s *IndexService) CreateFromText(ctx context.Context, name, fields string) (_ IndexInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("index.create", s.database, start, err) }()

	idx, err := s.svc.CreateFromText(ctx, s.database, name, fields)
	if err != nil {
		return IndexInfo{}, fmt.Errorf("create index: %w", err)
	}
	return fromInternalIndex(idx), nil
}

// Delete deletes an index. ddoc may carry the _design/ prefix or not.
func (s *IndexService) Delete(ctx context.Context, ddoc, name string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("index.delete", s.database, start, err) }()

	if err := s.svc.Delete(ctx, s.database, ddoc, name); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}

package couchman

import (
	"context"
	"fmt"
	"time"
)

// DocumentService manages the documents of one database.
type DocumentService struct {
	database string
	svc      documentUseCase
	obs      *observer
}

// List returns every document of the database except design documents.
func (s *DocumentService) List(ctx context.Context) (_ []Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.list", s.database, start, err) }()

	docs, err := s.svc.List(ctx, s.database)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.get", s.database, start, err) }()

	doc, err := s.svc.Get(ctx, s.database, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Save writes a document and returns it with its new _rev. A document
// without _id gets a generated one. Updates must carry the current _rev;
// otherwise the write fails with a *RevisionConflictError.
func (s *DocumentService) Save(ctx context.Context, doc Document) (_ Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.save", s.database, start, err) }()

	saved, err := s.svc.Save(ctx, s.database, doc)
	if err != nil {
		return Document{}, fmt.Errorf("save document: %w", err)
	}
	return saved, nil
}

// Delete deletes a document at rev.
func (s *DocumentService) Delete(ctx context.Context, id, rev string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("document.delete", s.database, start, err) }()

	if err := s.svc.Delete(ctx, s.database, id, rev); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

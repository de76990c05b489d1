package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/couchman/internal/domain"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
)

// Service handles document CRUD.
type Service struct {
	repo  Repository
	newID IDGenerator
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo, newID: NewID}
}

// WithIDGenerator overrides the id generator for documents saved without _id.
func (s *Service) WithIDGenerator(gen IDGenerator) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// NewID returns a random 32-hex-digit id in the format CouchDB generates.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// List returns all documents of a database except design documents.
func (s *Service) List(ctx context.Context, database string) ([]domdoc.Document, error) {
	if database == "" {
		return nil, fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	docs, err := s.repo.List(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := docs[:0]
	for _, d := range docs {
		if d.IsDesign() {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, database, id string) (domdoc.Document, error) {
	if database == "" || id == "" {
		return domdoc.Document{}, fmt.Errorf("database and document id are required: %w", domain.ErrValidation)
	}
	doc, err := s.repo.Get(ctx, database, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Save writes a document and returns it with the server-assigned _id and _rev.
// Existing documents must carry the current _rev; new ones omit it.
func (s *Service) Save(ctx context.Context, database string, doc domdoc.Document) (domdoc.Document, error) {
	if database == "" {
		return domdoc.Document{}, fmt.Errorf("database name is required: %w", domain.ErrValidation)
	}
	if doc.ID() == "" {
		doc = doc.WithID(s.newID())
	}

	rev, err := s.repo.Put(ctx, database, doc)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("save document: %w", err)
	}
	return doc.WithRev(rev), nil
}

// Delete deletes a document at the given revision.
func (s *Service) Delete(ctx context.Context, database, id, rev string) error {
	if database == "" || id == "" {
		return fmt.Errorf("database and document id are required: %w", domain.ErrValidation)
	}
	if rev == "" {
		return fmt.Errorf("revision of %q is required: %w", id, domain.ErrValidation)
	}
	if err := s.repo.Delete(ctx, database, id, rev); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

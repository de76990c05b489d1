package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/domain"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	"github.com/kailas-cloud/couchman/internal/repository"
)

// Repo implements usecase/document.Repository.
type Repo struct {
	store db.DocumentStore
}

// New creates a document repository.
func New(s db.DocumentStore) *Repo {
	return &Repo{store: s}
}

// List returns every document of a database with its body, in server key order.
// Design documents are returned too; filtering is the caller's policy.
func (r *Repo) List(ctx context.Context, database string) ([]domdoc.Document, error) {
	rows, err := r.store.AllDocs(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("list documents of %s: %w", database, repository.MapError(err))
	}

	docs := make([]domdoc.Document, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		doc, err := rowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("list documents of %s: row %s: %w", database, row.ID, domain.ErrServer)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get returns one document.
func (r *Repo) Get(ctx context.Context, database, id string) (domdoc.Document, error) {
	var doc domdoc.Document
	if err := r.store.GetDoc(ctx, database, id, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("get document %s: %w", id, repository.MapError(err))
	}
	return doc, nil
}

// Put writes a document that carries an _id. The body's _rev (if any) is the
// optimistic-concurrency token; a stale one yields a RevisionConflictError.
// Returns the new revision.
func (r *Repo) Put(ctx context.Context, database string, doc domdoc.Document) (string, error) {
	rev, err := r.store.PutDoc(ctx, database, doc.ID(), doc)
	if err != nil {
		return "", fmt.Errorf("put document %s: %w", doc.ID(), conflictOr(err, doc.ID(), doc.Rev()))
	}
	if rev == "" {
		return "", fmt.Errorf("put document %s: no confirmation from server: %w", doc.ID(), domain.ErrServer)
	}
	return rev, nil
}

// Delete deletes a document at the given revision.
func (r *Repo) Delete(ctx context.Context, database, id, rev string) error {
	if err := r.store.DeleteDoc(ctx, database, id, rev); err != nil {
		return fmt.Errorf("delete document %s: %w", id, conflictOr(err, id, rev))
	}
	return nil
}

func conflictOr(err error, id, rev string) error {
	if errors.Is(err, db.ErrConflict) {
		return fmt.Errorf("%w: %w", domain.NewRevisionConflict(id, rev), err)
	}
	return repository.MapError(err)
}

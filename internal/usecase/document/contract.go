package document

import (
	"context"

	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	List(ctx context.Context, database string) ([]domdoc.Document, error)
	Get(ctx context.Context, database, id string) (domdoc.Document, error)
	Put(ctx context.Context, database string, doc domdoc.Document) (rev string, err error)
	Delete(ctx context.Context, database, id, rev string) error
}

// IDGenerator produces ids for documents saved without one.
type IDGenerator func() string

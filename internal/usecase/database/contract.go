package database

import (
	"context"

	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

// Repository defines the storage contract for databases.
type Repository interface {
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
}

// IndexCreator creates the default index of a new database.
type IndexCreator interface {
	Create(ctx context.Context, database string, idx domidx.Index, ddoc string) (domidx.Index, error)
}

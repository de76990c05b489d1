package index

import (
	"context"

	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

// Repository defines the storage contract for Mango indexes.
type Repository interface {
	List(ctx context.Context, database string) ([]domidx.Index, error)
	Create(ctx context.Context, database string, idx domidx.Index, ddoc string) (domidx.Index, error)
	Delete(ctx context.Context, database, ddoc, name string) error
}

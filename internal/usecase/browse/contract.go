package browse

import (
	"context"

	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
)

// Documents is the document service the browser drives.
type Documents interface {
	List(ctx context.Context, database string) ([]domdoc.Document, error)
	Save(ctx context.Context, database string, doc domdoc.Document) (domdoc.Document, error)
	Delete(ctx context.Context, database, id, rev string) error
}

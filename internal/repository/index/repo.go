package index

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/db"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
	"github.com/kailas-cloud/couchman/internal/repository"
)

// Repo implements usecase/index.Repository.
type Repo struct {
	store db.IndexStore
}

// New creates an index repository.
func New(s db.IndexStore) *Repo {
	return &Repo{store: s}
}

// List returns all indexes of a database, including the special _all_docs index.
func (r *Repo) List(ctx context.Context, database string) ([]domidx.Index, error) {
	defs, err := r.store.GetIndexes(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", database, repository.MapError(err))
	}

	out := make([]domidx.Index, len(defs))
	for i, d := range defs {
		out[i] = toDomain(d)
	}
	return out, nil
}

// Create creates a Mango index. ddoc may be empty to let the server choose;
// the chosen design document is then looked up by name and fields.
func (r *Repo) Create(ctx context.Context, database string, idx domidx.Index, ddoc string) (domidx.Index, error) {
	if err := r.store.CreateIndex(ctx, database, ddoc, idx.Name(), buildDefinition(idx)); err != nil {
		return domidx.Index{}, fmt.Errorf("create index in %s: %w", database, repository.MapError(err))
	}
	if ddoc != "" {
		return domidx.Reconstruct(domidx.NormalizeDesignDoc(ddoc), idx.Name(), idx.Type(), idx.Fields()), nil
	}

	defs, err := r.store.GetIndexes(ctx, database)
	if err != nil {
		return domidx.Index{}, fmt.Errorf("read back index %s in %s: %w", idx.Name(), database, repository.MapError(err))
	}
	want := idx.FieldsString()
	for _, d := range defs {
		got := toDomain(d)
		if got.Name() == idx.Name() && got.FieldsString() == want {
			return got, nil
		}
	}
	return domidx.Reconstruct("", idx.Name(), idx.Type(), idx.Fields()), nil
}

// Delete deletes a JSON index by design document and name.
func (r *Repo) Delete(ctx context.Context, database, ddoc, name string) error {
	err := r.store.DeleteIndex(ctx, database, domidx.NormalizeDesignDoc(ddoc), name)
	if err != nil {
		return fmt.Errorf("delete index %s/%s in %s: %w", ddoc, name, database, repository.MapError(err))
	}
	return nil
}

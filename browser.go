package couchman

import (
	"context"
	"time"

	browseuc "github.com/kailas-cloud/couchman/internal/usecase/browse"
)

// Browser is a document browser over one database with a local copy of its
// documents. Edits are checked against the cached revisions, and the copy
// only changes after the server accepts a write. A Browser is not safe for
// concurrent use.
type Browser struct {
	session *browseuc.Session
	obs     *observer
}

func newBrowser(database string, docs documentUseCase, obs *observer) *Browser {
	return &Browser{session: browseuc.New(docs, database), obs: obs}
}

// Database returns the browsed database.
func (b *Browser) Database() string { return b.session.Database() }

// Current returns the id of the open document, or "".
func (b *Browser) Current() string { return b.session.Current() }

// Refresh reloads the listing. On failure the previous copy is kept.
func (b *Browser) Refresh(ctx context.Context) (_ []DocumentRow, err error) {
	start := time.Now()
	defer func() { b.obs.observe("browse.refresh", b.Database(), start, err) }()

	return b.session.Refresh(ctx) //nolint:wrapcheck // already wrapped with the database name
}

// Rows returns every cached document.
func (b *Browser) Rows() []DocumentRow { return b.session.Rows() }

// Filter returns cached documents whose id or body contains query, ignoring case.
func (b *Browser) Filter(query string) []DocumentRow { return b.session.Filter(query) }

// Document returns a cached document.
func (b *Browser) Document(id string) (Document, bool) { return b.session.Document(id) }

// Show opens a cached document and returns it as indented JSON.
func (b *Browser) Show(id string) (string, error) { return b.session.Show(id) }

// NewDocument creates {"_id": id}, or {} with a generated id, and opens it.
func (b *Browser) NewDocument(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { b.obs.observe("browse.new", b.Database(), start, err) }()

	return b.session.NewDocument(ctx, id) //nolint:wrapcheck // domain errors pass through
}

// Save parses edited text and writes it. See the browse rules on Document ids:
// a missing _id means the open document, and a different one requires
// confirmIDChange. Invalid JSON fails with ErrInvalidJSON before any request.
func (b *Browser) Save(ctx context.Context, text string, confirmIDChange bool) (_ Document, err error) {
	start := time.Now()
	defer func() { b.obs.observe("browse.save", b.Database(), start, err) }()

	return b.session.Save(ctx, text, confirmIDChange) //nolint:wrapcheck // domain errors pass through
}

// Delete deletes a cached document at its cached revision.
func (b *Browser) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { b.obs.observe("browse.delete", b.Database(), start, err) }()

	return b.session.Delete(ctx, id) //nolint:wrapcheck // domain errors pass through
}

// Format pretty-prints text without touching the cache.
func (b *Browser) Format(text string) (string, error) { return b.session.Format(text) }

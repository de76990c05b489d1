// Package browse implements the document browser: a per-database view that
// caches the listing, lets the operator filter it, open a document as JSON
// text, and save or delete it.
package browse

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/couchman/internal/domain"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
)

// Row is one line of the document table.
type Row struct {
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// RowOf returns the table row of a document.
func RowOf(d domdoc.Document) Row { return Row{ID: d.ID(), Rev: d.Rev()} }

// Session is the state of one open browse view. The cache belongs to the
// session and is rebuilt by Refresh. A Session is not safe for concurrent use.
type Session struct {
	database string
	docs     Documents
	cache    map[string]domdoc.Document
	order    []string
	current  string
}

// New opens a browse view on database. Call Refresh to load it.
func New(docs Documents, database string) *Session {
	return &Session{
		database: database,
		docs:     docs,
		cache:    make(map[string]domdoc.Document),
	}
}

// Database returns the browsed database.
func (s *Session) Database() string { return s.database }

// Current returns the id of the document open in the editor, or "" for none.
func (s *Session) Current() string { return s.current }

// Len returns the number of cached documents.
func (s *Session) Len() int { return len(s.order) }

// Refresh reloads the listing. On failure the previous cache is kept.
func (s *Session) Refresh(ctx context.Context) ([]Row, error) {
	docs, err := s.docs.List(ctx, s.database)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", s.database, err)
	}

	cache := make(map[string]domdoc.Document, len(docs))
	order := make([]string, 0, len(docs))
	for _, d := range docs {
		if _, dup := cache[d.ID()]; !dup {
			order = append(order, d.ID())
		}
		cache[d.ID()] = d
	}
	s.cache, s.order = cache, order
	if _, ok := s.cache[s.current]; !ok {
		s.current = ""
	}
	return s.Rows(), nil
}

// Rows returns every cached document in listing order.
func (s *Session) Rows() []Row { return s.Filter("") }

// Filter returns cached documents whose id or body contains query, case-insensitively.
func (s *Session) Filter(query string) []Row {
	rows := make([]Row, 0, len(s.order))
	for _, id := range s.order {
		d := s.cache[id]
		if d.Matches(query) {
			rows = append(rows, RowOf(d))
		}
	}
	return rows
}

// Document returns a cached document.
func (s *Session) Document(id string) (domdoc.Document, bool) {
	d, ok := s.cache[id]
	return d, ok
}

// Show opens a cached document and returns its editor text.
func (s *Session) Show(id string) (string, error) {
	d, ok := s.cache[id]
	if !ok {
		return "", fmt.Errorf("document %q is not loaded: %w", id, domain.ErrNotFound)
	}
	text, err := d.Pretty()
	if err != nil {
		return "", err
	}
	s.current = id
	return text, nil
}

// NewDocument creates and saves {"_id": id}, or {} when id is empty, and opens it.
func (s *Session) NewDocument(ctx context.Context, id string) (domdoc.Document, error) {
	body := map[string]any{}
	if id != "" {
		body[domdoc.KeyID] = id
	}
	s.current = ""
	return s.save(ctx, domdoc.New(body))
}

// Save parses editor text and writes it.
//
// With a document open, a missing _id defaults to the open one, and a
// different _id is refused with ErrIDChanged unless confirmed (the write then
// creates a new document). Invalid JSON fails before any network call. The
// cache changes only after the server accepts the write.
func (s *Session) Save(ctx context.Context, text string, confirmIDChange bool) (domdoc.Document, error) {
	doc, err := domdoc.Parse(text)
	if err != nil {
		return domdoc.Document{}, err
	}

	if s.current != "" {
		switch {
		case !doc.HasID():
			doc = doc.WithID(s.current)
		case doc.ID() != s.current && !confirmIDChange:
			return domdoc.Document{}, fmt.Errorf(
				"%w from %q to %q; saving creates a new document", domain.ErrIDChanged, s.current, doc.ID(),
			)
		}
	}
	return s.save(ctx, doc)
}

func (s *Session) save(ctx context.Context, doc domdoc.Document) (domdoc.Document, error) {
	saved, err := s.docs.Save(ctx, s.database, doc)
	if err != nil {
		return domdoc.Document{}, err
	}

	if _, ok := s.cache[saved.ID()]; !ok {
		s.order = append(s.order, saved.ID())
	}
	s.cache[saved.ID()] = saved
	s.current = saved.ID()
	return saved, nil
}

// Delete deletes a cached document at its cached revision.
func (s *Session) Delete(ctx context.Context, id string) error {
	d, ok := s.cache[id]
	if !ok {
		return fmt.Errorf("document %q is not loaded: %w", id, domain.ErrNotFound)
	}
	if err := s.docs.Delete(ctx, s.database, id, d.Rev()); err != nil {
		return err
	}

	delete(s.cache, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == id {
		s.current = ""
	}
	return nil
}

// Format pretty-prints editor text without touching the cache.
func (s *Session) Format(text string) (string, error) {
	return domdoc.Format(text)
}

package browse

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/couchman/internal/domain"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	documentuc "github.com/kailas-cloud/couchman/internal/usecase/document"
)

// fakeRepo is an in-memory document repository with CouchDB revision checks.
type fakeRepo struct {
	docs    map[string]domdoc.Document
	order   []string
	seq     int
	calls   int
	failAll error
}

func newFakeRepo(docs ...domdoc.Document) *fakeRepo {
	r := &fakeRepo{docs: map[string]domdoc.Document{}}
	for _, d := range docs {
		r.docs[d.ID()] = d
		r.order = append(r.order, d.ID())
	}
	return r
}

func (r *fakeRepo) List(_ context.Context, _ string) ([]domdoc.Document, error) {
	r.calls++
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]domdoc.Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.docs[id])
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, _, id string) (domdoc.Document, error) {
	r.calls++
	d, ok := r.docs[id]
	if !ok {
		return domdoc.Document{}, domain.ErrNotFound
	}
	return d, nil
}

func (r *fakeRepo) Put(_ context.Context, _ string, doc domdoc.Document) (string, error) {
	r.calls++
	if r.failAll != nil {
		return "", r.failAll
	}
	existing, ok := r.docs[doc.ID()]
	if (ok && existing.Rev() != doc.Rev()) || (!ok && doc.Rev() != "") {
		return "", domain.NewRevisionConflict(doc.ID(), doc.Rev())
	}
	r.seq++
	rev := string(rune('0'+r.seq)) + "-rev"
	if !ok {
		r.order = append(r.order, doc.ID())
	}
	r.docs[doc.ID()] = doc.WithRev(rev)
	return rev, nil
}

func (r *fakeRepo) Delete(_ context.Context, _, id, rev string) error {
	r.calls++
	existing, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Rev() != rev {
		return domain.NewRevisionConflict(id, rev)
	}
	delete(r.docs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func mustParse(t *testing.T, text string) domdoc.Document {
	t.Helper()
	d, err := domdoc.Parse(text)
	require.NoError(t, err)
	return d
}

func newSession(t *testing.T, repo *fakeRepo) *Session {
	t.Helper()
	svc := documentuc.New(repo).WithIDGenerator(func() string { return "auto" })
	s := New(svc, "people")
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	return s
}

func TestRefresh_ExcludesDesignDocuments(t *testing.T) {
	repo := newFakeRepo(
		mustParse(t, `{"_id":"_design/idx","_rev":"1-d","language":"query"}`),
		mustParse(t, `{"_id":"alice","_rev":"1-a","name":"Alice"}`),
	)
	s := newSession(t, repo)

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, Row{ID: "alice", Rev: "1-a"}, rows[0])
	_, ok := s.Document("_design/idx")
	assert.False(t, ok)
}

func TestRefresh_FailureKeepsCache(t *testing.T) {
	repo := newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a"}`))
	s := newSession(t, repo)

	repo.failAll = domain.ErrConnection
	_, err := s.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrConnection)
	assert.Equal(t, 1, s.Len())
}

func TestFilter(t *testing.T) {
	repo := newFakeRepo(
		mustParse(t, `{"_id":"alice","_rev":"1-a","city":"Berlin"}`),
		mustParse(t, `{"_id":"bob","_rev":"1-b","city":"Paris"}`),
	)
	s := newSession(t, repo)

	assert.Len(t, s.Filter(""), 2)
	assert.Equal(t, []Row{{ID: "bob", Rev: "1-b"}}, s.Filter("PARIS"))
	assert.Equal(t, []Row{{ID: "alice", Rev: "1-a"}}, s.Filter("ali"))
	assert.Empty(t, s.Filter("tokyo"))
}

func TestShow(t *testing.T) {
	s := newSession(t, newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a","v":1}`)))

	text, err := s.Show("a")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"_id\": \"a\",\n  \"_rev\": \"1-a\",\n  \"v\": 1\n}", text)
	assert.Equal(t, "a", s.Current())

	_, err = s.Show("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSave_UpdatesRevision(t *testing.T) {
	s := newSession(t, newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a","v":1}`)))
	text, err := s.Show("a")
	require.NoError(t, err)

	saved, err := s.Save(context.Background(), text, false)
	require.NoError(t, err)
	assert.Equal(t, "1-rev", saved.Rev())

	cached, _ := s.Document("a")
	assert.Equal(t, "1-rev", cached.Rev())
	assert.Equal(t, []Row{{ID: "a", Rev: "1-rev"}}, s.Rows())
}

func TestSave_StaleRevisionDoesNotMutateCache(t *testing.T) {
	repo := newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a","v":1}`))
	s := newSession(t, repo)
	_, err := s.Show("a")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), `{"_id":"a","_rev":"0-stale","v":2}`, false)
	require.ErrorIs(t, err, domain.ErrConflict)

	cached, _ := s.Document("a")
	assert.Equal(t, "1-a", cached.Rev())
	assert.Equal(t, json.Number("1"), cached.Body()["v"])
}

func TestSave_InvalidJSONSkipsNetwork(t *testing.T) {
	repo := newFakeRepo()
	s := newSession(t, repo)
	calls := repo.calls

	_, err := s.Save(context.Background(), `{"_id": `, false)
	require.ErrorIs(t, err, domain.ErrInvalidJSON)
	assert.Equal(t, calls, repo.calls)
}

func TestSave_MissingIDDefaultsToCurrent(t *testing.T) {
	s := newSession(t, newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a"}`)))
	_, err := s.Show("a")
	require.NoError(t, err)

	saved, err := s.Save(context.Background(), `{"_rev":"1-a","v":3}`, false)
	require.NoError(t, err)
	assert.Equal(t, "a", saved.ID())
}

func TestSave_IDChangeRequiresConfirmation(t *testing.T) {
	repo := newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a"}`))
	s := newSession(t, repo)
	_, err := s.Show("a")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), `{"_id":"b"}`, false)
	require.ErrorIs(t, err, domain.ErrIDChanged)
	assert.Equal(t, 1, s.Len())

	saved, err := s.Save(context.Background(), `{"_id":"b"}`, true)
	require.NoError(t, err)
	assert.Equal(t, "b", saved.ID())
	assert.Equal(t, "b", s.Current())
	assert.Equal(t, 2, s.Len())
}

func TestNewDocument(t *testing.T) {
	s := newSession(t, newFakeRepo())

	named, err := s.NewDocument(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", named.ID())

	anon, err := s.NewDocument(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "auto", anon.ID())
	assert.Equal(t, "auto", s.Current())
	assert.Equal(t, 2, s.Len())
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo(
		mustParse(t, `{"_id":"a","_rev":"1-a"}`),
		mustParse(t, `{"_id":"b","_rev":"1-b"}`),
	)
	s := newSession(t, repo)
	_, err := s.Show("a")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "a"))
	assert.Equal(t, []Row{{ID: "b", Rev: "1-b"}}, s.Rows())
	assert.Equal(t, "", s.Current())

	err = s.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_StaleRevisionKeepsCache(t *testing.T) {
	repo := newFakeRepo(mustParse(t, `{"_id":"a","_rev":"1-a"}`))
	s := newSession(t, repo)

	// Someone else updated the document after our refresh.
	repo.docs["a"] = repo.docs["a"].WithRev("2-other")

	err := s.Delete(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, 1, s.Len())
}

func TestFormat(t *testing.T) {
	s := New(nil, "db")
	out, err := s.Format(`{"b":1,"a":[1,2]}`)
	require.NoError(t, err)
	again, err := s.Format(out)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = s.Format(`nope`)
	assert.ErrorIs(t, err, domain.ErrInvalidJSON)
}

package couchdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/couchman/internal/db"
)

func newTestStore(t *testing.T, h http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{URL: srv.URL + "/", Username: "admin", Password: "secret", UserAgent: "couchman/test"})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewStore_Validation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"scheme", "ftp://host:5984"},
		{"no host", "http://"},
		{"credentials in url", "http://admin:pw@host:5984"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStore(Config{URL: tc.url})
			assert.Error(t, err)
		})
	}
}

func TestCreateIndex_SendsAuthHeadersAndBody(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "couchman/test", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/db/_index", r.URL.Path)

		var body struct {
			Index json.RawMessage `json:"index"`
			DDoc  string          `json:"ddoc"`
			Name  string          `json:"name"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `{"fields":["a"]}`, string(body.Index))
		assert.Equal(t, "by-a", body.DDoc)
		assert.Equal(t, "a-idx", body.Name)

		writeJSON(w, http.StatusOK, `{"result":"created","id":"_design/by-a","name":"a-idx"}`)
	})

	err := s.CreateIndex(context.Background(), "db", "by-a", "a-idx", map[string]any{"fields": []string{"a"}})
	require.NoError(t, err)
}

func TestAllDBs_ContextCredentialsOverride(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "operator", user)
		assert.Equal(t, "pw", pass)
		assert.Equal(t, "/_all_dbs", r.URL.Path)
		writeJSON(w, http.StatusOK, `["_users","people"]`)
	})

	ctx := ContextWithCredentials(context.Background(), Credentials{Username: "operator", Password: "pw"})
	names, err := s.AllDBs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"_users", "people"}, names)
}

func TestCreateDB_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		reason   string
	}{
		{400, `{"error":"illegal_database_name","reason":"Name: 'A'."}`, db.ErrBadRequest, "Name: 'A'."},
		{401, `{"error":"unauthorized","reason":"Name or password is incorrect."}`, db.ErrUnauthorized, "Name or password is incorrect."},
		{403, `{"error":"forbidden","reason":"You are not a server admin."}`, db.ErrForbidden, "You are not a server admin."},
		{412, `{"error":"file_exists","reason":"The database could not be created."}`, db.ErrPreconditionFailed, "The database could not be created."},
		{500, `{"error":"unknown_error","reason":"boom"}`, db.ErrUnexpectedStatus, "boom"},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/x", r.URL.Path)
				writeJSON(w, tc.status, tc.body)
			})

			err := s.CreateDB(context.Background(), "x")
			require.ErrorIs(t, err, tc.sentinel)

			var dbErr *db.Error
			require.ErrorAs(t, err, &dbErr)
			assert.Equal(t, tc.status, dbErr.StatusCode())
			assert.Contains(t, dbErr.Reason, tc.reason)
			assert.Equal(t, db.OpCreateDB, dbErr.Op)
		})
	}
}

func TestAllDBs_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	s, err := NewStore(Config{URL: srv.URL})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.AllDBs(context.Background())
	require.ErrorIs(t, err, db.ErrUnavailable)
	assert.False(t, db.Answered(err))
}

func TestAllDBs_MalformedResponse(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{not json`)
	})

	_, err := s.AllDBs(context.Background())
	require.ErrorIs(t, err, db.ErrDecode)
}

func TestInfoAndPing(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"couchdb":"Welcome","version":"3.3.3","uuid":"85fb71bf","vendor":{"name":"The Apache Software Foundation"}}`)
	})

	info, err := s.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.3.3", info.Version)
	assert.Equal(t, "The Apache Software Foundation", info.Vendor)
	assert.Equal(t, "85fb71bf", info.UUID)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestIndexes_ListAndDelete(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/db/_index":
			writeJSON(w, http.StatusOK, `{"total_rows":2,"indexes":[
				{"ddoc":null,"name":"_all_docs","type":"special","def":{"fields":[{"_id":"asc"}]}},
				{"ddoc":"_design/by-a","name":"a-idx","type":"json","def":{"fields":[{"a":"desc"}]}}]}`)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/db/_index/") &&
			strings.HasSuffix(r.URL.Path, "by-a/json/a-idx"):
			writeJSON(w, http.StatusOK, `{"ok":true}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			writeJSON(w, http.StatusNotFound, `{"error":"not_found","reason":"missing"}`)
		}
	})

	defs, err := s.GetIndexes(context.Background(), "db")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "", defs[0].DesignDoc)
	assert.Equal(t, "_design/by-a", defs[1].DesignDoc)
	assert.Equal(t, "json", defs[1].Type)
	assert.JSONEq(t, `{"fields":[{"a":"desc"}]}`, string(defs[1].Definition))

	require.NoError(t, s.DeleteIndex(context.Background(), "db", "_design/by-a", "a-idx"))
}

func TestDocuments_RoundTrip(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/db/_all_docs":
			assert.Equal(t, "true", r.URL.Query().Get("include_docs"))
			writeJSON(w, http.StatusOK, `{"total_rows":1,"offset":0,"rows":[
				{"id":"a","key":"a","value":{"rev":"1-x"},"doc":{"_id":"a","_rev":"1-x","n":1}}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/db/a":
			writeJSON(w, http.StatusOK, `{"_id":"a","_rev":"1-x","n":1}`)
		case r.Method == http.MethodPut && r.URL.Path == "/db/a":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"_id":"a","_rev":"1-x","n":2}`, string(body))
			writeJSON(w, http.StatusCreated, `{"ok":true,"id":"a","rev":"2-y"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/db/a":
			assert.Equal(t, "2-y", r.URL.Query().Get("rev"))
			writeJSON(w, http.StatusOK, `{"ok":true,"id":"a","rev":"3-z"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			writeJSON(w, http.StatusNotFound, `{"error":"not_found","reason":"missing"}`)
		}
	})
	ctx := context.Background()

	rows, err := s.AllDocs(ctx, "db")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, "1-x", rows[0].Rev)
	assert.JSONEq(t, `{"_id":"a","_rev":"1-x","n":1}`, string(rows[0].Doc))

	var doc map[string]any
	require.NoError(t, s.GetDoc(ctx, "db", "a", &doc))
	assert.Equal(t, "1-x", doc["_rev"])

	rev, err := s.PutDoc(ctx, "db", "a", json.RawMessage(`{"_id":"a","_rev":"1-x","n":2}`))
	require.NoError(t, err)
	assert.Equal(t, "2-y", rev)

	require.NoError(t, s.DeleteDoc(ctx, "db", "a", "2-y"))
}

func TestGetDoc_NotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"not_found","reason":"missing"}`)
	})

	var doc map[string]any
	err := s.GetDoc(context.Background(), "db", "nope", &doc)
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.True(t, db.Answered(err))
}

func TestWaitForReady_Timeout(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"error":"service_unavailable","reason":"starting"}`)
	})

	err := s.WaitForReady(context.Background(), 300*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForReady_Ready(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"couchdb":"Welcome","version":"3.3.3"}`)
	})

	require.NoError(t, s.WaitForReady(context.Background(), time.Second))
}

func TestWaitForReady_RejectedCredentialsStopImmediately(t *testing.T) {
	var hits atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, `{"error":"unauthorized","reason":"Name or password is incorrect."}`)
	})

	start := time.Now()
	err := s.WaitForReady(context.Background(), 5*time.Second)
	require.ErrorIs(t, err, db.ErrUnauthorized)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), hits.Load())
}

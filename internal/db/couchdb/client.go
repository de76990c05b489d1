// Package couchdb implements db.Store on top of the kivik CouchDB driver.
package couchdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kivik/kivik/v4"
	kivikcouch "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/kailas-cloud/couchman/internal/db"
	"github.com/kailas-cloud/couchman/internal/metrics"
	"github.com/kailas-cloud/couchman/internal/version"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	defaultTimeout = 30 * time.Second
	readyInterval  = 250 * time.Millisecond
)

// Config holds connection parameters for a CouchDB server.
type Config struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Store implements db.Store with a kivik client. Credentials and the
// User-Agent are applied per request by the HTTP transport, so one store
// serves every console operator.
type Store struct {
	baseURL string
	client  *kivik.Client
	http    *http.Client
}

// NewStore creates a CouchDB store. No request is made until the first call.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url host is required")
	}
	if u.User != nil {
		return nil, fmt.Errorf("url must not embed credentials")
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		*httpClient = *cfg.HTTPClient
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = cfg.Timeout
		if httpClient.Timeout <= 0 {
			httpClient.Timeout = defaultTimeout
		}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	httpClient.Transport = &transport{
		base:      base,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: userAgent,
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	client, err := kivik.New("couch", baseURL,
		kivikcouch.OptionHTTPClient(httpClient),
		kivikcouch.OptionNoRequestCompression(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kivik client: %w", err)
	}

	return &Store{baseURL: baseURL, client: client, http: httpClient}, nil
}

// BaseURL returns the server URL without a trailing slash.
func (s *Store) BaseURL() string { return s.baseURL }

// Ping checks connectivity and credentials with GET /.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.Info(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Info returns the server welcome document.
func (s *Store) Info(ctx context.Context) (db.ServerInfo, error) {
	var info db.ServerInfo
	err := s.call(ctx, db.OpServerInfo, func(ctx context.Context) error {
		v, err := s.client.Version(ctx)
		if err != nil {
			return err
		}
		info.Version = v.Version
		info.Vendor = v.Vendor
		var welcome struct {
			UUID string `json:"uuid"`
		}
		if len(v.RawResponse) > 0 {
			if err := json.Unmarshal(v.RawResponse, &welcome); err != nil {
				return fmt.Errorf("%w: %w", db.ErrDecode, err)
			}
		}
		info.UUID = welcome.UUID
		return nil
	})
	return info, err
}

// Close releases the kivik client and idle connections.
func (s *Store) Close() {
	_ = s.client.Close()
	s.http.CloseIdleConnections()
}

// WaitForReady polls Ping until the server answers or timeout expires.
// Any HTTP answer other than a 5xx ends the wait: a 401 or 403 means the
// server is up and the credentials are wrong, which retrying cannot fix.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyInterval)
	defer ticker.Stop()

	for {
		err := s.Ping(ctx)
		if err == nil || !db.Retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for couchdb: %w (last error: %w)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

// AllDBs lists database names.
func (s *Store) AllDBs(ctx context.Context) ([]string, error) {
	var names []string
	err := s.call(ctx, db.OpAllDBs, func(ctx context.Context) error {
		var err error
		names, err = s.client.AllDBs(ctx)
		return err
	})
	return names, err
}

// CreateDB creates a database.
func (s *Store) CreateDB(ctx context.Context, name string) error {
	return s.call(ctx, db.OpCreateDB, func(ctx context.Context) error {
		return s.client.CreateDB(ctx, name)
	})
}

// DestroyDB deletes a database.
func (s *Store) DestroyDB(ctx context.Context, name string) error {
	return s.call(ctx, db.OpDeleteDB, func(ctx context.Context) error {
		return s.client.DestroyDB(ctx, name)
	})
}

// GetIndexes lists the indexes of a database.
func (s *Store) GetIndexes(ctx context.Context, database string) ([]db.IndexDef, error) {
	var defs []db.IndexDef
	err := s.call(ctx, db.OpListIndexes, func(ctx context.Context) error {
		indexes, err := s.client.DB(database).GetIndexes(ctx)
		if err != nil {
			return err
		}
		defs = make([]db.IndexDef, 0, len(indexes))
		for _, idx := range indexes {
			def, err := json.Marshal(idx.Definition)
			if err != nil {
				return fmt.Errorf("%w: %w", db.ErrDecode, err)
			}
			defs = append(defs, db.IndexDef{
				DesignDoc:  idx.DesignDoc,
				Name:       idx.Name,
				Type:       idx.Type,
				Definition: def,
			})
		}
		return nil
	})
	return defs, err
}

// CreateIndex creates a Mango index.
func (s *Store) CreateIndex(ctx context.Context, database, ddoc, name string, index any) error {
	return s.call(ctx, db.OpCreateIndex, func(ctx context.Context) error {
		return s.client.DB(database).CreateIndex(ctx, ddoc, name, index)
	})
}

// DeleteIndex deletes a json index.
func (s *Store) DeleteIndex(ctx context.Context, database, ddoc, name string) error {
	return s.call(ctx, db.OpDeleteIndex, func(ctx context.Context) error {
		return s.client.DB(database).DeleteIndex(ctx, ddoc, name)
	})
}

// AllDocs lists every document with its body.
func (s *Store) AllDocs(ctx context.Context, database string) ([]db.Row, error) {
	var rows []db.Row
	err := s.call(ctx, db.OpAllDocs, func(ctx context.Context) error {
		rs := s.client.DB(database).AllDocs(ctx, kivik.Param("include_docs", true))
		defer func() { _ = rs.Close() }()

		for rs.Next() {
			id, err := rs.ID()
			if err != nil {
				return err
			}
			var value struct {
				Rev string `json:"rev"`
			}
			if err := rs.ScanValue(&value); err != nil {
				return fmt.Errorf("%w: %w", db.ErrDecode, err)
			}
			// ScanDoc fails when the row carries no doc.
			var doc json.RawMessage
			if err := rs.ScanDoc(&doc); err != nil || string(doc) == "null" {
				doc = nil
			}
			rows = append(rows, db.Row{ID: id, Rev: value.Rev, Doc: doc})
		}
		return rs.Err()
	})
	return rows, err
}

// GetDoc decodes a document into dest.
func (s *Store) GetDoc(ctx context.Context, database, id string, dest any) error {
	return s.call(ctx, db.OpGetDocument, func(ctx context.Context) error {
		row := s.client.DB(database).Get(ctx, id)
		if err := row.Err(); err != nil {
			return err
		}
		if err := row.ScanDoc(dest); err != nil {
			return fmt.Errorf("%w: %w", db.ErrDecode, err)
		}
		return nil
	})
}

// PutDoc writes doc under id and returns the new revision.
func (s *Store) PutDoc(ctx context.Context, database, id string, doc any) (string, error) {
	var rev string
	err := s.call(ctx, db.OpPutDocument, func(ctx context.Context) error {
		var err error
		rev, err = s.client.DB(database).Put(ctx, id, doc)
		return err
	})
	return rev, err
}

// DeleteDoc deletes revision rev of a document.
func (s *Store) DeleteDoc(ctx context.Context, database, id, rev string) error {
	return s.call(ctx, db.OpDeleteDocument, func(ctx context.Context) error {
		_, err := s.client.DB(database).Delete(ctx, id, rev)
		return err
	})
}

// call runs fn with a fresh exchange record, records metrics and converts
// the outcome into a *db.Error.
func (s *Store) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ex := &exchange{}
	err := fn(withExchange(ctx, ex))

	metrics.CouchDBRequestsTotal.WithLabelValues(op, metrics.CodeLabel(ex.status)).Inc()
	metrics.CouchDBRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		return nil
	}
	return classify(ctx, op, ex, err)
}

func classify(ctx context.Context, op string, ex *exchange, err error) error {
	switch {
	case ex.err != nil:
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, ex.err)}
	case ex.status >= http.StatusBadRequest:
		return &db.Error{
			Op:     op,
			Status: ex.status,
			Reason: reason(err),
			Err:    db.SentinelForStatus(ex.status),
		}
	case ex.status != 0:
		if errors.Is(err, db.ErrDecode) {
			return &db.Error{Op: op, Status: ex.status, Err: err}
		}
		return &db.Error{Op: op, Status: ex.status, Err: fmt.Errorf("%w: %w", db.ErrDecode, err)}
	case ctx.Err() != nil:
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, ctx.Err())}
	default:
		// Rejected by the driver before any request was sent.
		status := kivik.HTTPStatus(err)
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			return &db.Error{Op: op, Reason: reason(err), Err: db.SentinelForStatus(status)}
		}
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnexpectedStatus, err)}
	}
}

// reason strips the "Status Text: " prefix kivik puts in front of the
// reason CouchDB sent.
func reason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

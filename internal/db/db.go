package db

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the CouchDB facade used by the repositories.
type Store interface {
	ServerStore
	DatabaseStore
	IndexStore
	DocumentStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks server connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerStore reads the server welcome document.
type ServerStore interface {
	Pinger
	Info(ctx context.Context) (ServerInfo, error)
}

// DatabaseStore manages databases.
type DatabaseStore interface {
	AllDBs(ctx context.Context) ([]string, error)
	CreateDB(ctx context.Context, name string) error
	DestroyDB(ctx context.Context, name string) error
}

// IndexStore manages Mango indexes.
type IndexStore interface {
	GetIndexes(ctx context.Context, database string) ([]IndexDef, error)
	// CreateIndex posts index (the "index" member of the request) under ddoc and name.
	CreateIndex(ctx context.Context, database, ddoc, name string, index any) error
	DeleteIndex(ctx context.Context, database, ddoc, name string) error
}

// DocumentStore reads and writes documents.
type DocumentStore interface {
	// AllDocs lists every document with its body (include_docs=true).
	AllDocs(ctx context.Context, database string) ([]Row, error)
	// GetDoc decodes a document into dest.
	GetDoc(ctx context.Context, database, id string, dest any) error
	// PutDoc writes doc under id and returns the new revision.
	PutDoc(ctx context.Context, database, id string, doc any) (string, error)
	DeleteDoc(ctx context.Context, database, id, rev string) error
}

// ServerInfo is the welcome document returned by GET /.
type ServerInfo struct {
	Version string
	Vendor  string
	UUID    string
}

// IndexDef is one entry of GET /{db}/_index. DesignDoc is empty for the
// built-in _all_docs index.
type IndexDef struct {
	DesignDoc  string
	Name       string
	Type       string
	Definition json.RawMessage
}

// Row is one row of _all_docs. Doc is nil when the server sent no body.
type Row struct {
	ID  string
	Rev string
	Doc json.RawMessage
}

package couchman

import (
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
	browseuc "github.com/kailas-cloud/couchman/internal/usecase/browse"
)

// Document is a CouchDB document: a JSON object with _id and _rev.
// Values are immutable; WithID and WithRev return copies.
type Document = domdoc.Document

// NewDocument creates a document from decoded JSON. The map is copied.
func NewDocument(body map[string]any) Document { return domdoc.New(body) }

// ParseDocument decodes editor text holding exactly one JSON object.
func ParseDocument(text string) (Document, error) { return domdoc.Parse(text) }

// FormatJSON pretty-prints JSON text with a two-space indent.
func FormatJSON(text string) (string, error) { return domdoc.Format(text) }

// SortOrder is the direction of an index field.
type SortOrder string

// Sort orders. SortNone leaves the direction to the server (ascending).
const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IndexField is one field of a Mango index.
type IndexField struct {
	Name  string
	Order SortOrder
}

// IndexInfo describes a Mango index.
type IndexInfo struct {
	DesignDoc string // with the _design/ prefix; empty for the built-in _all_docs index
	Name      string
	Type      string
	Fields    []IndexField
}

// IndexRow is the tabular rendering of an index: design document without
// prefix, name and fields as "a, b:desc".
type IndexRow = domidx.Row

// DocumentRow is one line of a document listing.
type DocumentRow = browseuc.Row

// BulkResult is the outcome for one database in a bulk deletion.
type BulkResult struct {
	Name string
	Err  error
}

// OK reports whether the item succeeded.
func (r BulkResult) OK() bool { return r.Err == nil }

// ServerInfo is the CouchDB welcome document.
type ServerInfo struct {
	Version string
	Vendor  string
	UUID    string
}

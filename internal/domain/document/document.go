package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/couchman/internal/domain"
)

// Reserved keys and id prefixes.
const (
	KeyID        = "_id"
	KeyRev       = "_rev"
	DesignPrefix = "_design/"
	LocalPrefix  = "_local/"
)

// Document is a JSON object stored in CouchDB (value object, copy-on-write).
type Document struct {
	body map[string]any
}

// New creates a Document from a decoded JSON object. The map is copied.
func New(body map[string]any) Document {
	return Document{body: cloneBody(body)}
}

// Parse decodes editor text into a Document.
// The text must hold exactly one JSON object; numbers keep their textual form.
func Parse(text string) (Document, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("%w: unexpected data after top-level value", domain.ErrInvalidJSON)
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return Document{}, fmt.Errorf("%w: document must be a JSON object", domain.ErrInvalidJSON)
	}
	return Document{body: body}, nil
}

// Format pretty-prints editor text with a two-space indent.
// Formatting already formatted text returns it unchanged.
func Format(text string) (string, error) {
	doc, err := Parse(text)
	if err != nil {
		return "", err
	}
	return doc.Pretty()
}

// IsDesignID reports whether id names a design document.
func IsDesignID(id string) bool { return strings.HasPrefix(id, DesignPrefix) }

// ID returns the _id field, or "" when absent.
func (d Document) ID() string { return d.stringField(KeyID) }

// Rev returns the _rev field, or "" when absent.
func (d Document) Rev() string { return d.stringField(KeyRev) }

// IsDesign reports whether the document is a design document.
func (d Document) IsDesign() bool { return IsDesignID(d.ID()) }

// Body returns a shallow copy of the document fields.
func (d Document) Body() map[string]any { return cloneBody(d.body) }

// HasID reports whether the document carries an _id key.
func (d Document) HasID() bool {
	_, ok := d.body[KeyID]
	return ok
}

// WithID returns a copy with _id set.
func (d Document) WithID(id string) Document { return d.with(KeyID, id) }

// WithRev returns a copy with _rev set.
func (d Document) WithRev(rev string) Document { return d.with(KeyRev, rev) }

// Pretty renders the document as indented JSON without HTML escaping.
func (d Document) Pretty() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.object()); err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Matches reports whether query (case-insensitive) occurs in the id or the serialized body.
// An empty query matches everything.
func (d Document) Matches(query string) bool {
	q := strings.ToLower(query)
	if q == "" || strings.Contains(strings.ToLower(d.ID()), q) {
		return true
	}
	data, err := json.Marshal(d.object())
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), q)
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(d.object())
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Document) object() map[string]any {
	if d.body == nil {
		return map[string]any{}
	}
	return d.body
}

func (d Document) stringField(key string) string {
	s, _ := d.body[key].(string)
	return s
}

func (d Document) with(key, value string) Document {
	body := cloneBody(d.body)
	if body == nil {
		body = make(map[string]any, 1)
	}
	body[key] = value
	return Document{body: body}
}

func cloneBody(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

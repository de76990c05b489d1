// Package index holds the Mango index descriptor.
package index

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/couchman/internal/domain"
	"github.com/kailas-cloud/couchman/internal/domain/document"
)

// TypeJSON is the default Mango index type.
const TypeJSON = "json"

// Order is a field sort direction.
type Order string

// Sort orders accepted by Mango.
const (
	OrderNone Order = ""
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Field is one component of a composite index key.
type Field struct {
	Name  string
	Order Order
}

// String renders the field as name or name:order.
func (f Field) String() string {
	if f.Order == OrderNone {
		return f.Name
	}
	return f.Name + ":" + string(f.Order)
}

// ParseFields parses comma-separated field text such as "name, age:desc".
// A colon always introduces a sort order, which must be asc or desc.
func ParseFields(text string) ([]Field, error) {
	var fields []Field
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := Field{Name: part}
		if i := strings.LastIndexByte(part, ':'); i >= 0 {
			o := Order(strings.ToLower(strings.TrimSpace(part[i+1:])))
			if o != OrderAsc && o != OrderDesc {
				return nil, fmt.Errorf("field %q: sort order must be asc or desc: %w", part, domain.ErrValidation)
			}
			f = Field{Name: strings.TrimSpace(part[:i]), Order: o}
			if f.Name == "" {
				return nil, fmt.Errorf("field %q: name must not be empty: %w", part, domain.ErrValidation)
			}
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one index field is required: %w", domain.ErrValidation)
	}
	return fields, nil
}

// Index is a Mango index descriptor (immutable value object).
type Index struct {
	designDoc string
	name      string
	typ       string
	fields    []Field
}

// New validates and creates an index definition for creation.
// name may be empty (the server then generates one).
func New(name string, fields []Field) (Index, error) {
	if len(fields) == 0 {
		return Index{}, fmt.Errorf("at least one index field is required: %w", domain.ErrValidation)
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return Index{}, fmt.Errorf("index field name must not be empty: %w", domain.ErrValidation)
		}
		if f.Order != OrderNone && f.Order != OrderAsc && f.Order != OrderDesc {
			return Index{}, fmt.Errorf("invalid sort order %q: %w", f.Order, domain.ErrValidation)
		}
	}
	return Index{name: name, typ: TypeJSON, fields: append([]Field(nil), fields...)}, nil
}

// Reconstruct creates an Index without validation (server hydration).
func Reconstruct(designDoc, name, typ string, fields []Field) Index {
	return Index{designDoc: designDoc, name: name, typ: typ, fields: fields}
}

// DesignDoc returns the design document id as returned by the server.
func (i Index) DesignDoc() string { return i.designDoc }

// DesignName returns the design document name without the _design/ prefix.
func (i Index) DesignName() string { return strings.TrimPrefix(i.designDoc, document.DesignPrefix) }

// Name returns the index name.
func (i Index) Name() string { return i.name }

// Type returns the index type (json, text, special).
func (i Index) Type() string { return i.typ }

// Fields returns the ordered index fields.
func (i Index) Fields() []Field { return i.fields }

// FieldsString renders fields joined by ", ".
func (i Index) FieldsString() string {
	parts := make([]string, len(i.fields))
	for n, f := range i.fields {
		parts[n] = f.String()
	}
	return strings.Join(parts, ", ")
}

// Row is the tabular rendering of an index.
type Row struct {
	DesignDoc string `json:"ddoc"`
	Name      string `json:"name"`
	Fields    string `json:"fields"`
}

// Row renders the index for display.
func (i Index) Row() Row {
	return Row{DesignDoc: i.DesignName(), Name: i.name, Fields: i.FieldsString()}
}

// NormalizeDesignDoc ensures ddoc carries the _design/ prefix.
func NormalizeDesignDoc(ddoc string) string {
	if strings.HasPrefix(ddoc, document.DesignPrefix) {
		return ddoc
	}
	return document.DesignPrefix + ddoc
}

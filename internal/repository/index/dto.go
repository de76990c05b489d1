package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/couchman/internal/db"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

// definition is the "index" member of POST /{db}/_index and the "def"
// member of GET /{db}/_index.
type definition struct {
	Fields []fieldDTO `json:"fields"`
}

// readDefinition keeps each field raw so multi-key objects retain their order.
type readDefinition struct {
	Fields []json.RawMessage `json:"fields"`
}

// fieldDTO marshals as "name" or {"name": "order"}.
type fieldDTO domidx.Field

func (f fieldDTO) MarshalJSON() ([]byte, error) {
	if f.Order == domidx.OrderNone {
		return json.Marshal(f.Name) //nolint:wrapcheck // plain value encoding
	}
	return json.Marshal(map[string]string{f.Name: string(f.Order)}) //nolint:wrapcheck // plain value encoding
}

func buildDefinition(idx domidx.Index) definition {
	def := definition{Fields: make([]fieldDTO, len(idx.Fields()))}
	for i, f := range idx.Fields() {
		def.Fields[i] = fieldDTO(f)
	}
	return def
}

func toDomain(d db.IndexDef) domidx.Index {
	var def readDefinition
	if len(d.Definition) > 0 {
		_ = json.Unmarshal(d.Definition, &def)
	}
	var fields []domidx.Field
	for _, raw := range def.Fields {
		fields = append(fields, parseField(raw)...)
	}
	return domidx.Reconstruct(d.DesignDoc, d.Name, d.Type, fields)
}

// parseField accepts "name" or {"name": "asc", ...}; object keys keep server order.
// Anything else is rendered verbatim as the field name.
func parseField(raw json.RawMessage) []domidx.Field {
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return []domidx.Field{{Name: name}}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return []domidx.Field{{Name: strings.TrimSpace(string(raw))}}
	}

	var fields []domidx.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		key, _ := keyTok.(string)
		var val any
		if err := dec.Decode(&val); err != nil {
			break
		}
		fields = append(fields, domidx.Field{Name: key, Order: domidx.Order(fmt.Sprint(val))})
	}
	return fields
}

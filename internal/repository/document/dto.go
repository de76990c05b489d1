package document

import (
	"github.com/kailas-cloud/couchman/internal/db"
	domdoc "github.com/kailas-cloud/couchman/internal/domain/document"
)

// rowToDomain returns the row document, filling _id/_rev from the row when the body lacks them.
func rowToDomain(row db.Row) (domdoc.Document, error) {
	var doc domdoc.Document
	if len(row.Doc) > 0 {
		parsed, err := domdoc.Parse(string(row.Doc))
		if err != nil {
			return domdoc.Document{}, err
		}
		doc = parsed
	}
	if doc.ID() == "" {
		doc = doc.WithID(row.ID)
	}
	if doc.Rev() == "" && row.Rev != "" {
		doc = doc.WithRev(row.Rev)
	}
	return doc, nil
}

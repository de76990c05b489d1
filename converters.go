package couchman

import (
	dombatch "github.com/kailas-cloud/couchman/internal/domain/batch"
	domidx "github.com/kailas-cloud/couchman/internal/domain/index"
)

func toInternalFields(fields []IndexField) []domidx.Field {
	out := make([]domidx.Field, len(fields))
	for i, f := range fields {
		out[i] = domidx.Field{Name: f.Name, Order: domidx.Order(f.Order)}
	}
	return out
}

func fromInternalIndex(idx domidx.Index) IndexInfo {
	fields := make([]IndexField, len(idx.Fields()))
	for i, f := range idx.Fields() {
		fields[i] = IndexField{Name: f.Name, Order: SortOrder(f.Order)}
	}
	return IndexInfo{
		DesignDoc: idx.DesignDoc(),
		Name:      idx.Name(),
		Type:      idx.Type(),
		Fields:    fields,
	}
}

func fromInternalResults(results []dombatch.Result) []BulkResult {
	out := make([]BulkResult, len(results))
	for i, r := range results {
		out[i] = BulkResult{Name: r.Name(), Err: r.Err()}
	}
	return out
}

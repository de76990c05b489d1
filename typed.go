package couchman

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is a typed view of a database. T is encoded with encoding/json
// and must encode to an object; map its _id and _rev with json tags
// (omitempty on both) to round-trip revisions.
type Collection[T any] struct {
	database string
	client   *Client
}

// NewCollection creates a typed handle for the given database.
func NewCollection[T any](client *Client, database string) *Collection[T] {
	return &Collection[T]{database: database, client: client}
}

// Database returns the database name.
func (c *Collection[T]) Database() string { return c.database }

// Get retrieves a typed item by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	doc, err := c.client.Documents(c.database).Get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get: %w", err)
	}
	return decodeItem[T](doc)
}

// All returns every non-design document decoded as T.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	docs, err := c.client.Documents(c.database).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem[T](doc)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.ID(), err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Put writes item and returns it with the revision assigned by the server
// (and the generated id when item had none).
func (c *Collection[T]) Put(ctx context.Context, item T) (T, error) {
	var zero T
	doc, err := encodeItem(item)
	if err != nil {
		return zero, fmt.Errorf("put: %w", err)
	}
	saved, err := c.client.Documents(c.database).Save(ctx, doc)
	if err != nil {
		return zero, fmt.Errorf("put: %w", err)
	}
	return decodeItem[T](saved)
}

// Delete removes an item by id at rev.
func (c *Collection[T]) Delete(ctx context.Context, id, rev string) error {
	return c.client.Documents(c.database).Delete(ctx, id, rev)
}

func encodeItem[T any](item T) (Document, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return Document{}, fmt.Errorf("encode %T: %w", item, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("encode %T: %w", item, err)
	}
	return doc, nil
}

func decodeItem[T any](doc Document) (T, error) {
	var item T
	data, err := json.Marshal(doc)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode %T: %w", item, err)
	}
	return item, nil
}

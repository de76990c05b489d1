// Package couchman is a Go client for administering Apache CouchDB servers:
// databases, Mango indexes and documents over the CouchDB HTTP API.
//
// # Low-level API
//
//	client, _ := couchman.New(ctx,
//	    couchman.WithServer("http://127.0.0.1:5984"),
//	    couchman.WithCredentials("admin", "secret"),
//	)
//	defer client.Close()
//
//	_ = client.Databases().Create(ctx, "people")
//	_, _ = client.Indexes("people").CreateFromText(ctx, "by_city", "city, age:desc")
//	doc, _ := client.Documents("people").Save(ctx, couchman.NewDocument(map[string]any{"_id": "alice"}))
//
// # Browser API
//
// A Browser keeps a local copy of one database's documents, the way an
// operator console does: filter, open, edit and delete with revision checks.
//
//	b := client.Browse("people")
//	_, _ = b.Refresh(ctx)
//	text, _ := b.Show("alice")
//	_, err := b.Save(ctx, text, false)
//
// # Typed API
//
//	type Person struct {
//	    ID   string `json:"_id,omitempty"`
//	    Rev  string `json:"_rev,omitempty"`
//	    City string `json:"city"`
//	}
//
//	people := couchman.NewCollection[Person](client, "people")
//	p, _ := people.Put(ctx, Person{ID: "alice", City: "Berlin"})
package couchman

// Package docstore describes the remote document-collection service the wardrobe
// core talks to. Paths are slash separated and scoped by collection name and owner
// id, e.g. "users/{uid}/closet" or "marketplace".
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Store is the document-collection service.
type Store interface {
	// Subscribe registers a live watch. The returned feed delivers the current
	// contents first and a full snapshot after every later mutation.
	Subscribe(ctx context.Context, q Query) (*Feed, error)
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, path, id string) (*Document, error)
	// Add creates a document with a generated id.
	Add(ctx context.Context, path string, fields map[string]any) (string, error)
	// Set writes a document. With merge, fields not present are left untouched.
	Set(ctx context.Context, path, id string, fields map[string]any, merge bool) error
	// Update changes fields of an existing document or returns ErrNotFound.
	Update(ctx context.Context, path, id string, fields map[string]any) error
	Delete(ctx context.Context, path, id string) error
}

type Query struct {
	Path       string
	OrderBy    string
	Descending bool
}

type Document struct {
	ID   string
	Data map[string]any
}

type Snapshot struct {
	Docs     []Document
	ReadTime time.Time
}

type serverTimestamp struct{}

// ServerTimestamp asks the backend to fill in its own commit time.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ResolveTimestamps returns a copy of fields with every top-level
// ServerTimestamp replaced by now.
func ResolveTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if IsServerTimestamp(v) {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// Decode converts a document into T, copying the document id into the
// "id" field.
func Decode[T any](doc Document) (T, error) {
	var result T
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data["id"] = doc.ID
	b, err := json.Marshal(data)
	if err != nil {
		return result, fmt.Errorf("failed to encode doc %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("failed to convert doc %s: %w", doc.ID, err)
	}
	return result, nil
}

package storage

import (
	"context"
	"io"
)

// Backend abstracts the byte store behind the media service. Keys are
// slash-separated relative paths of the form "category/userId/fileName";
// backends map them to filesystem paths or object keys as appropriate.
type Backend interface {
	// Provision prepares the store for the given top-level prefixes
	// (categories). Idempotent; called once at startup before any upload
	// is accepted.
	Provision(ctx context.Context, prefixes []string) error

	// Save writes the content under key, overwriting any existing object.
	// A failed write must not leave a partial object behind.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the object at key. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, key string) error
}

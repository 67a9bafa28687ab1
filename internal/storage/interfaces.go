package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound indicates the stored object does not exist
var ErrObjectNotFound = errors.New("stored object not found")

// ImageStore persists uploaded image bytes, addressed by a generated key.
type ImageStore interface {
	// Save writes the image bytes and returns the generated storage key.
	// The object is either fully written or absent.
	Save(ctx context.Context, data []byte, filename string) (string, error)

	// Read returns the bytes for a previously saved key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Path returns a backend-specific locator for the key (filesystem path
	// or blob name). Informational only.
	Path(key string) string

	// Delete removes the object. Used for compensating cleanup when
	// metadata persistence fails after a successful save.
	Delete(ctx context.Context, key string) error
}

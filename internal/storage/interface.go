package storage

import (
	"context"
)

// ObjectMeta carries caching and descriptive metadata for a stored object.
type ObjectMeta struct {
	CacheControl string
	Metadata     map[string]string
}

// ObjectStorage defines the interface for object storage operations
type ObjectStorage interface {
	// Store writes data under key
	Store(ctx context.Context, key string, data []byte, contentType string, meta ObjectMeta) error

	// MakePublic grants public read on key and returns its public URL
	MakePublic(ctx context.Context, key string) (string, error)

	// Download reads the full object
	Download(ctx context.Context, key string) ([]byte, error)

	// GetURL returns the public URL for key without changing its ACL
	GetURL(key string) string

	// KeyFromURL resolves a storage URI (gs://, s3://) or public URL in this
	// bucket to an object key
	KeyFromURL(rawURL string) (string, bool)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}

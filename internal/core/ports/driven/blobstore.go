package driven

import "context"

// BlobStore persists raw report images by key.
//
// Keys are built with domain.BlobKey. Implementations may be a local
// directory, Dropbox, or an in-memory map for tests. Failures surface as
// domain.ErrStorageUnavailable wrapped in a domain.AdapterError.
type BlobStore interface {
	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves the object stored under key.
	// Returns domain.ErrNotFound if no object exists.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
}

// Package objectstore persists uploaded images and serves back public URLs.
package objectstore

import "context"

// Store saves binary objects and returns the URL they are reachable at
type Store interface {
	// Put writes data under path and returns its public URL
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Delete removes the object at path. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, path string) error
}

// Package blobstore abstracts whole-object storage for per-tile bitmap
// blobs. The store's write path rewrites a tile's blob in full on every
// save, which maps directly onto object PUT semantics, so blobs can live
// on the local file system or on any S3-compatible endpoint.
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// Store reads, replaces and deletes named blobs.
type Store interface {
	// Get returns the full contents of the named blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put replaces the named blob with data, creating it if absent.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the named blob. Deleting an absent blob returns
	// ErrNotFound.
	Delete(ctx context.Context, name string) error
}

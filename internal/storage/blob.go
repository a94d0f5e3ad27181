package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists at the given path.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the byte-level persistence transport. Paths are
// forward-slash separated keys relative to the store root.
type BlobStore interface {
	// Get returns the blob at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put writes the blob at path, creating parent prefixes as needed
	// and replacing any existing blob atomically.
	Put(ctx context.Context, path string, data []byte) error

	// Append appends data to the blob at path, creating it if absent.
	// Used for append-only logs.
	Append(ctx context.Context, path string, data []byte) error

	// Exists reports whether a blob exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the paths of all blobs under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the blob at path. Deleting a missing blob is not
	// an error.
	Delete(ctx context.Context, path string) error
}

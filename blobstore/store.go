// Package blobstore abstracts flat blob storage so a persisted collection
// directory can be replicated to and from remote object stores. Stores copy
// already-persisted files; they never participate in save/open semantics.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blobstore: blob not found")

// Store is a flat namespace of named blobs.
type Store interface {
	// Put writes a blob, replacing any existing content under name.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens a blob for reading. Missing blobs yield ErrNotFound.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}

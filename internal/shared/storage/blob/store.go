package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("blob not found")

// Store defines the contract for persisting and retrieving binary objects
// under storage-relative keys. Keys are generated by callers and are never
// derived from user-supplied names.
type Store interface {
	// Put writes the reader's contents at key, creating parent directories
	// (or prefixes) as needed, and returns the number of payload bytes
	// consumed from the reader.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader over the object at key, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object at key. Deleting a missing key is not an
	// error; the caller decides whether absence matters.
	Delete(ctx context.Context, key string) error
}

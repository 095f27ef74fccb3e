package files

import "errors"

var (
	ErrNotFound     = errors.New("file not found")
	ErrForbidden    = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")

	// ErrBlobMissing means the metadata row exists but the payload is gone
	// from the storage medium. Callers treat it as not-found.
	ErrBlobMissing = errors.New("file payload missing from storage")
)

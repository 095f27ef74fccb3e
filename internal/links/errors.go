package links

import "errors"

var (
	// ErrNotFound is returned when no link matches the lookup.
	ErrNotFound = errors.New("link not found")
	// ErrExpired is returned when a link exists but its expiry has passed.
	ErrExpired = errors.New("link expired")
	// ErrForbidden is returned when the caller does not own the target file.
	ErrForbidden = errors.New("access denied")
	// ErrTokenTaken is returned by repositories on a token collision.
	ErrTokenTaken = errors.New("token already in use")
	// ErrInvalidInput is returned for malformed creation requests.
	ErrInvalidInput = errors.New("invalid input")
)

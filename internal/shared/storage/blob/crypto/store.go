package crypto

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/fernet/fernet-go"

	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/storage/blob"
	"filevault-backend/internal/shared/telemetry"
)

// Store wraps an inner blob.Store with fernet authenticated encryption.
// Every Put encrypts with a fresh random IV, so identical payloads produce
// distinct ciphertexts. Ciphertext is always at least as long as the
// plaintext.
type Store struct {
	inner blob.Store
	key   *fernet.Key
}

// New wraps inner with encryption under the given key.
func New(inner blob.Store, key *fernet.Key) *Store {
	return &Store{inner: inner, key: key}
}

// Put encrypts the reader's contents and writes the ciphertext at key.
// The returned count is plaintext bytes, which is what callers record as the
// object size.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read payload: %w", err)
	}
	token, err := fernet.EncryptAndSign(plaintext, s.key)
	if err != nil {
		return 0, fmt.Errorf("encrypt: %w", err)
	}
	if _, err := s.inner.Put(ctx, key, bytes.NewReader(token)); err != nil {
		return 0, err
	}
	return int64(len(plaintext)), nil
}

// Open reads the stored ciphertext and returns the authenticated plaintext.
// If verification fails the raw stored bytes are returned unchanged: objects
// written before encryption was enabled are indistinguishable from corrupted
// ciphertext here, and historically both were served as-is. The fallback is
// logged and counted so operators can tell it is happening.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.inner.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	stored, err := io.ReadAll(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read ciphertext: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close ciphertext: %w", closeErr)
	}

	plaintext := fernet.VerifyAndDecrypt(stored, 0, []*fernet.Key{s.key})
	if plaintext == nil {
		metrics.IncDecryptFallback()
		telemetry.Warn("blob.decrypt_fallback", map[string]any{
			"key":          key,
			"stored_bytes": len(stored),
		})
		plaintext = stored
	}
	return io.NopCloser(bytes.NewReader(plaintext)), nil
}

// Exists reports whether an object is present at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

var _ blob.Store = (*Store)(nil)

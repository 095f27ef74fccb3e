package files

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/storage/blob"
	"filevault-backend/internal/shared/telemetry"
)

// Service contains business logic for stored files.
type Service struct {
	Blobs blob.Store
	Repo  FilesRepo
}

// Upload encrypts and persists the payload, then records the metadata.
// The storage key is generated here and never derived from the display name.
func (s *Service) Upload(ctx context.Context, ident auth.Identity, originalName, description string, r io.Reader) (File, error) {
	if originalName == "" {
		return File{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	storageKey := newStorageKey(ident.UserID, now)

	size, err := s.Blobs.Put(ctx, storageKey, r)
	if err != nil {
		return File{}, err
	}

	file := File{
		ID:           uuid.NewString(),
		UserID:       ident.UserID,
		OriginalName: originalName,
		Description:  description,
		StorageKey:   storageKey,
		SizeBytes:    size,
		CreatedAt:    now,
	}

	if err := s.Repo.Create(ctx, file); err != nil {
		// Metadata write failed after the blob write; the payload is left
		// dangling rather than risking a partial cleanup. Visible in logs.
		telemetry.Error("files.create_metadata", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
		return File{}, err
	}

	metrics.IncUploads()
	return file, nil
}

// Get returns a file if the caller owns it or is an administrator.
func (s *Service) Get(ctx context.Context, ident auth.Identity, fileID string) (File, error) {
	file, err := s.Repo.GetByID(ctx, fileID)
	if err != nil {
		return File{}, err
	}
	if !ident.CanAccess(file.UserID) {
		return File{}, ErrForbidden
	}
	return file, nil
}

// List returns the files owned by userID. Non-admin callers may only list
// their own files.
func (s *Service) List(ctx context.Context, ident auth.Identity, userID string, limit, offset int) ([]File, error) {
	if userID == "" {
		userID = ident.UserID
	}
	if !ident.CanAccess(userID) {
		return nil, ErrForbidden
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes the metadata row first (cascading to links), then the
// payload. A failed blob delete leaves an orphaned ciphertext, which is
// logged rather than surfaced: the object is already unreachable.
func (s *Service) Delete(ctx context.Context, ident auth.Identity, fileID string) error {
	file, err := s.Repo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if !ident.CanAccess(file.UserID) {
		return ErrForbidden
	}

	if err := s.Repo.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.Blobs.Delete(ctx, file.StorageKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		telemetry.Error("files.delete_blob", map[string]any{
			"file_id":     fileID,
			"storage_key": file.StorageKey,
			"error":       err.Error(),
		})
	}
	return nil
}

func newStorageKey(userID string, now time.Time) string {
	id := uuid.New()
	return path.Join(userID, now.UTC().Format("2006/01/02"), hex.EncodeToString(id[:]))
}

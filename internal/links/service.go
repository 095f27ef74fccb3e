package links

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"filevault-backend/internal/files"
	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/telemetry"
)

// tokenRetryLimit bounds regeneration attempts on a token collision. With
// 256-bit tokens a single collision is already improbable.
const tokenRetryLimit = 5

// FileGetter is the slice of the file store the link service needs.
type FileGetter interface {
	GetByID(ctx context.Context, fileID string) (files.File, error)
}

// Service contains business logic for share links.
type Service struct {
	Repo       LinksRepo
	Files      FileGetter
	DefaultTTL time.Duration
}

// Create mints a link for a file the caller may access. A zero expiresAt
// falls back to the configured default TTL; a zero default means the link
// never expires.
func (s *Service) Create(ctx context.Context, ident auth.Identity, fileID string, expiresAt *time.Time) (Link, error) {
	if fileID == "" {
		return Link{}, ErrInvalidInput
	}

	file, err := s.Files.GetByID(ctx, fileID)
	if err != nil {
		return Link{}, err
	}
	if !ident.CanAccess(file.UserID) {
		return Link{}, ErrForbidden
	}

	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return Link{}, ErrInvalidInput
	}
	if expiresAt == nil && s.DefaultTTL > 0 {
		t := now.Add(s.DefaultTTL)
		expiresAt = &t
	}

	for attempt := 0; attempt < tokenRetryLimit; attempt++ {
		token, err := newToken()
		if err != nil {
			return Link{}, err
		}
		link := Link{
			ID:        uuid.NewString(),
			FileID:    file.ID,
			Token:     token,
			CreatedAt: now,
			ExpiresAt: expiresAt,
			CreatedBy: ident.UserID,
		}
		err = s.Repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, ErrTokenTaken) {
			return Link{}, err
		}
		telemetry.Warn("links.token_collision", map[string]any{
			"file_id": file.ID,
			"attempt": attempt + 1,
		})
	}
	return Link{}, ErrTokenTaken
}

// Resolve maps a public token to the link and its file. Expiry is checked
// here, at resolution time, so an expired link is distinguishable from a
// missing one.
func (s *Service) Resolve(ctx context.Context, token string) (Link, files.File, error) {
	link, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return Link{}, files.File{}, err
	}
	if link.IsExpired(time.Now().UTC()) {
		return Link{}, files.File{}, ErrExpired
	}

	file, err := s.Files.GetByID(ctx, link.FileID)
	if err != nil {
		// The file is gone but the link row survived; treat the link as
		// dead rather than leaking the distinction.
		if errors.Is(err, files.ErrNotFound) {
			return Link{}, files.File{}, ErrNotFound
		}
		return Link{}, files.File{}, err
	}
	return link, file, nil
}

// List returns the links for a file the caller may access.
func (s *Service) List(ctx context.Context, ident auth.Identity, fileID string) ([]Link, error) {
	file, err := s.Files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !ident.CanAccess(file.UserID) {
		return nil, ErrForbidden
	}
	return s.Repo.ListByFile(ctx, file.ID)
}

// ListMine returns the links the caller has minted. Administrators see
// every link.
func (s *Service) ListMine(ctx context.Context, ident auth.Identity) ([]Link, error) {
	if ident.IsAdmin {
		return s.Repo.ListByCreator(ctx, "")
	}
	return s.Repo.ListByCreator(ctx, ident.UserID)
}

// Delete revokes a link. Only the file owner or an administrator may
// revoke.
func (s *Service) Delete(ctx context.Context, ident auth.Identity, linkID string) error {
	link, err := s.Repo.GetByID(ctx, linkID)
	if err != nil {
		return err
	}

	file, err := s.Files.GetByID(ctx, link.FileID)
	if err != nil && !errors.Is(err, files.ErrNotFound) {
		return err
	}
	// A dangling link may be revoked by anyone who can name its ID; with
	// the file gone there is no owner left to check.
	if err == nil && !ident.CanAccess(file.UserID) {
		return ErrForbidden
	}
	return s.Repo.Delete(ctx, linkID)
}

package links

import "context"

// LinksRepo persists share links.
//
// Create returns ErrTokenTaken when the token collides with an existing
// link, so callers can regenerate and retry. ListByCreator with an empty
// createdBy returns every link.
type LinksRepo interface {
	Create(ctx context.Context, link Link) error
	GetByToken(ctx context.Context, token string) (Link, error)
	GetByID(ctx context.Context, linkID string) (Link, error)
	ListByFile(ctx context.Context, fileID string) ([]Link, error)
	ListByCreator(ctx context.Context, createdBy string) ([]Link, error)
	Delete(ctx context.Context, linkID string) error
}

package links

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of LinksRepo.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Link
	byToken map[string]string // token -> linkID
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Link),
		byToken: make(map[string]string),
	}
}

// Create stores a link, enforcing token uniqueness.
func (r *MemoryRepo) Create(ctx context.Context, link Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byToken[link.Token]; taken {
		return ErrTokenTaken
	}
	r.byID[link.ID] = link
	r.byToken[link.Token] = link.ID
	return nil
}

// GetByToken returns a link by its public token.
func (r *MemoryRepo) GetByToken(ctx context.Context, token string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return Link{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return Link{}, ErrNotFound
	}
	return r.byID[id], nil
}

// GetByID returns a link by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, linkID string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return Link{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.byID[linkID]
	if !ok {
		return Link{}, ErrNotFound
	}
	return link, nil
}

// ListByFile returns the links for a file, newest first.
func (r *MemoryRepo) ListByFile(ctx context.Context, fileID string) ([]Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Link
	for _, link := range r.byID {
		if link.FileID == fileID {
			out = append(out, link)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListByCreator returns the links minted by one identity, newest first. An
// empty createdBy returns everything.
func (r *MemoryRepo) ListByCreator(ctx context.Context, createdBy string) ([]Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Link
	for _, link := range r.byID {
		if createdBy == "" || link.CreatedBy == createdBy {
			out = append(out, link)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a link.
func (r *MemoryRepo) Delete(ctx context.Context, linkID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.byID[linkID]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, linkID)
	delete(r.byToken, link.Token)
	return nil
}

// DeleteByFile removes every link for a file, mirroring the cascade the
// database schema performs.
func (r *MemoryRepo) DeleteByFile(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, link := range r.byID {
		if link.FileID == fileID {
			delete(r.byID, id)
			delete(r.byToken, link.Token)
		}
	}
	return nil
}

var _ LinksRepo = (*MemoryRepo)(nil)

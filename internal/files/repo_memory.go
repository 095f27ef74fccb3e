package files

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of FilesRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]File // fileID -> file
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]File)}
}

// Create stores a file record.
func (r *MemoryRepo) Create(ctx context.Context, file File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[file.ID] = file
	return nil
}

// GetByID returns a file by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, fileID string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, ok := r.data[fileID]
	if !ok {
		return File{}, ErrNotFound
	}
	return file, nil
}

// ListByUser returns a user's files, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var out []File
	for _, file := range r.data {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []File{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Delete removes a file record.
func (r *MemoryRepo) Delete(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[fileID]; !ok {
		return ErrNotFound
	}
	delete(r.data, fileID)
	return nil
}

// RecordDownload bumps the counter and timestamp under the repo lock, which
// is the in-memory equivalent of the single-statement update.
func (r *MemoryRepo) RecordDownload(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.data[fileID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	file.DownloadCount++
	file.LastDownloadedAt = &now
	r.data[fileID] = file
	return nil
}

var _ FilesRepo = (*MemoryRepo)(nil)

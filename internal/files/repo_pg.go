package files

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements FilesRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new file record.
func (r *PGRepo) Create(ctx context.Context, file File) error {
	const query = `
INSERT INTO files (
    id,
    user_id,
    original_name,
    description,
    storage_key,
    size_bytes,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var description sql.NullString
	if file.Description != "" {
		description = sql.NullString{String: file.Description, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		file.ID,
		file.UserID,
		file.OriginalName,
		description,
		file.StorageKey,
		file.SizeBytes,
		file.CreatedAt,
	)
	return err
}

// GetByID fetches a file by ID.
func (r *PGRepo) GetByID(ctx context.Context, fileID string) (File, error) {
	const query = `
SELECT id, user_id, original_name, description, storage_key, size_bytes, created_at, last_downloaded_at, download_count
FROM files
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, fileID)
	file, err := scanFile(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	return file, nil
}

// ListByUser lists files for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]File, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, original_name, description, storage_key, size_bytes, created_at, last_downloaded_at, download_count
FROM files
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, rows.Err()
}

// Delete removes a file record. Links referencing it are removed by the
// ON DELETE CASCADE constraint.
func (r *PGRepo) Delete(ctx context.Context, fileID string) error {
	const query = `DELETE FROM files WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, fileID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDownload bumps the download counter and timestamp atomically.
func (r *PGRepo) RecordDownload(ctx context.Context, fileID string) error {
	const query = `
UPDATE files
SET download_count = download_count + 1, last_downloaded_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, fileID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFile(scan func(dest ...any) error) (File, error) {
	var file File
	var description sql.NullString
	var lastDownloadedAt sql.NullTime
	err := scan(
		&file.ID,
		&file.UserID,
		&file.OriginalName,
		&description,
		&file.StorageKey,
		&file.SizeBytes,
		&file.CreatedAt,
		&lastDownloadedAt,
		&file.DownloadCount,
	)
	if err != nil {
		return File{}, err
	}
	if description.Valid {
		file.Description = description.String
	}
	if lastDownloadedAt.Valid {
		file.LastDownloadedAt = &lastDownloadedAt.Time
	}
	return file, nil
}

var _ FilesRepo = (*PGRepo)(nil)

package links

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for a unique constraint hit.
const pgUniqueViolation = "23505"

// PGRepo implements LinksRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new link. The unique index on token surfaces collisions
// as ErrTokenTaken.
func (r *PGRepo) Create(ctx context.Context, link Link) error {
	const query = `
INSERT INTO links (
    id,
    file_id,
    token,
    created_at,
    expires_at,
    created_by
) VALUES ($1, $2, $3, $4, $5, $6)`

	var expiresAt sql.NullTime
	if link.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *link.ExpiresAt, Valid: true}
	}
	var createdBy sql.NullString
	if link.CreatedBy != "" {
		createdBy = sql.NullString{String: link.CreatedBy, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		link.ID,
		link.FileID,
		link.Token,
		link.CreatedAt,
		expiresAt,
		createdBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrTokenTaken
		}
		return err
	}
	return nil
}

// GetByToken fetches a link by its public token. The match is exact; expiry
// is the service's concern.
func (r *PGRepo) GetByToken(ctx context.Context, token string) (Link, error) {
	const query = `
SELECT id, file_id, token, created_at, expires_at, created_by
FROM links
WHERE token = $1
LIMIT 1`
	return scanLink(r.DB.QueryRowContext(ctx, query, token).Scan)
}

// GetByID fetches a link by ID.
func (r *PGRepo) GetByID(ctx context.Context, linkID string) (Link, error) {
	const query = `
SELECT id, file_id, token, created_at, expires_at, created_by
FROM links
WHERE id = $1
LIMIT 1`
	return scanLink(r.DB.QueryRowContext(ctx, query, linkID).Scan)
}

// ListByFile lists the links pointing at a file, newest first.
func (r *PGRepo) ListByFile(ctx context.Context, fileID string) ([]Link, error) {
	const query = `
SELECT id, file_id, token, created_at, expires_at, created_by
FROM links
WHERE file_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		link, err := scanLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// ListByCreator lists the links minted by one identity, newest first. An
// empty createdBy lists everything.
func (r *PGRepo) ListByCreator(ctx context.Context, createdBy string) ([]Link, error) {
	const query = `
SELECT id, file_id, token, created_at, expires_at, created_by
FROM links
WHERE $1 = '' OR created_by = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		link, err := scanLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// Delete removes a link.
func (r *PGRepo) Delete(ctx context.Context, linkID string) error {
	const query = `DELETE FROM links WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, linkID)
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

func scanLink(scan func(dest ...any) error) (Link, error) {
	var link Link
	var expiresAt sql.NullTime
	var createdBy sql.NullString
	err := scan(
		&link.ID,
		&link.FileID,
		&link.Token,
		&link.CreatedAt,
		&expiresAt,
		&createdBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Link{}, ErrNotFound
		}
		return Link{}, err
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	if createdBy.Valid {
		link.CreatedBy = createdBy.String
	}
	return link, nil
}

var _ LinksRepo = (*PGRepo)(nil)

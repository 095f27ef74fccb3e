package files

import "context"

// FilesRepo defines persistence operations for file metadata.
type FilesRepo interface {
	Create(ctx context.Context, file File) error
	GetByID(ctx context.Context, fileID string) (File, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]File, error)
	Delete(ctx context.Context, fileID string) error

	// RecordDownload advances last_downloaded_at and increments the
	// download counter in a single statement, so concurrent downloads
	// never lose an increment.
	RecordDownload(ctx context.Context, fileID string) error
}

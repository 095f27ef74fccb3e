package files

import "time"

// File is the metadata record for one uploaded, encrypted binary payload.
// The storage key is generated once at upload time and never recomputed.
type File struct {
	ID               string
	UserID           string
	OriginalName     string
	Description      string
	StorageKey       string
	SizeBytes        int64
	CreatedAt        time.Time
	LastDownloadedAt *time.Time
	DownloadCount    int64
}

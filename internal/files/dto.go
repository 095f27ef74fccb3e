package files

import "time"

// FileResponse is the outward-facing representation of a stored file.
type FileResponse struct {
	FileID           string     `json:"fileId"`
	OriginalName     string     `json:"originalName"`
	Description      string     `json:"description,omitempty"`
	SizeBytes        int64      `json:"sizeBytes"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	LastDownloadedAt *time.Time `json:"lastDownloadedAt,omitempty"`
	DownloadCount    int64      `json:"downloadCount"`
}

func toResponse(file File) FileResponse {
	return FileResponse{
		FileID:           file.ID,
		OriginalName:     file.OriginalName,
		Description:      file.Description,
		SizeBytes:        file.SizeBytes,
		UploadedAt:       file.CreatedAt,
		LastDownloadedAt: file.LastDownloadedAt,
		DownloadCount:    file.DownloadCount,
	}
}

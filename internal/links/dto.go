package links

import "time"

// CreateLinkRequest is the payload for minting a share link.
type CreateLinkRequest struct {
	FileID    string     `json:"fileId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// LinkResponse is the outward-facing representation of a share link.
type LinkResponse struct {
	LinkID    string     `json:"linkId"`
	FileID    string     `json:"fileId"`
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func toResponse(link Link) LinkResponse {
	return LinkResponse{
		LinkID:    link.ID,
		FileID:    link.FileID,
		Token:     link.Token,
		URL:       "/public/" + link.Token + "/",
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
}

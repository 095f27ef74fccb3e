package links

import "time"

// Link is a shareable, unauthenticated handle to a stored file. A nil
// ExpiresAt means the link never expires. Expired links are kept and
// reported as expired at resolution time, not purged.
type Link struct {
	ID        string
	FileID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt *time.Time
	CreatedBy string
}

// IsExpired reports whether the link has passed its expiry at the given
// instant.
func (l Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

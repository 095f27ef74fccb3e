package files

import (
	"testing"
	"time"

	"filevault-backend/internal/shared/auth"
)

func testIdentity(userID string) auth.Identity {
	return auth.Identity{UserID: userID}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", value, err)
	}
	return parsed
}

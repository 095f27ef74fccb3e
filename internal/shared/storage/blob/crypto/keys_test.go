package crypto

import (
	"testing"

	"github.com/fernet/fernet-go"
)

func TestResolveKeyUsesValidKeyVerbatim(t *testing.T) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	encoded := key.Encode()

	resolved := ResolveKey(encoded)
	if resolved.Encode() != encoded {
		t.Fatalf("expected configured key to be used verbatim")
	}
}

func TestResolveKeyDerivesDeterministically(t *testing.T) {
	a := ResolveKey("not-a-key-at-all")
	b := ResolveKey("not-a-key-at-all")
	if a.Encode() != b.Encode() {
		t.Fatalf("derived keys differ for the same secret")
	}

	c := ResolveKey("a-different-secret")
	if a.Encode() == c.Encode() {
		t.Fatalf("different secrets should derive different keys")
	}
}

func TestResolveKeyNeverFails(t *testing.T) {
	for _, secret := range []string{"", "x", "dev-key-please-change", "====", "\x00\x01"} {
		if key := ResolveKey(secret); key == nil {
			t.Fatalf("ResolveKey(%q) returned nil", secret)
		}
	}
}

func TestResolveKeyEmptyMatchesDefault(t *testing.T) {
	if ResolveKey("").Encode() != ResolveKey(defaultSecret).Encode() {
		t.Fatalf("empty secret should resolve to the default key")
	}
}

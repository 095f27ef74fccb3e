package crypto

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/fernet/fernet-go"
)

const defaultSecret = "dev-key-please-change"

// ResolveKey turns a configured secret into a fernet key. A secret that is
// already a valid key encoding is used verbatim; anything else is hashed with
// SHA-256 and the digest used as the key, so a misconfigured secret still
// yields the same key on every process start. This never fails.
func ResolveKey(secret string) *fernet.Key {
	if secret == "" {
		secret = defaultSecret
	}
	if key, err := fernet.DecodeKey(secret); err == nil {
		return key
	}
	sum := sha256.Sum256([]byte(secret))
	key, err := fernet.DecodeKey(base64.URLEncoding.EncodeToString(sum[:]))
	if err != nil {
		// A 32-byte digest always decodes; reaching this means fernet
		// changed its key format.
		panic("crypto: derive key: " + err.Error())
	}
	return key
}

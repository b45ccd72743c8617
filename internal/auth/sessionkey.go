package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// NewSessionKey returns an opaque random Base64URL key (32 bytes) for a
// device session row.
func NewSessionKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

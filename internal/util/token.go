package util

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomToken returns a URL-safe random token for password reset links.
func RandomToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

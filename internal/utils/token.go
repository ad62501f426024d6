package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultTokenBytes is the entropy of activation and password reset tokens.
const DefaultTokenBytes = 32

// GenerateSecureToken returns n bytes of crypto/rand output encoded as
// unpadded base64url, safe to embed in query strings.
func GenerateSecureToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// MaxSecretBytes keeps encoded secrets under bcrypt's 72 byte input limit.
const MaxSecretBytes = 48

// RandomSecret returns n random bytes encoded as unpadded URL-safe base64, so
// the result can travel in headers and be hashed with bcrypt as is.
func RandomSecret(n int) (string, error) {
	if n <= 0 || n > MaxSecretBytes {
		return "", fmt.Errorf("secret length must be between 1 and %d bytes, got %d", MaxSecretBytes, n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

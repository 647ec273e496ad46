package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateShareToken produces a URL-safe random token for external share links.
func GenerateShareToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("byte length must be positive")
	}
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package wishlists

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// qrTokenBytes yields 256 bits of entropy, double the 128-bit floor the
// redemption protocol requires.
const qrTokenBytes = 32

// NewQRToken returns a cryptographically random, URL-safe token. Tokens are
// generated once per wishlist and never rotated.
func NewQRToken() (string, error) {
	buf := make([]byte, qrTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate qr token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

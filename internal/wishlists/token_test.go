package wishlists

import (
	"encoding/base64"
	"testing"
)

func TestNewQRTokenLengthAndEncoding(t *testing.T) {
	token, err := NewQRToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not url-safe base64: %v", err)
	}
	if len(raw) != qrTokenBytes {
		t.Fatalf("expected %d bytes of entropy, got %d", qrTokenBytes, len(raw))
	}
}

func TestNewQRTokenUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		token, err := NewQRToken()
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = struct{}{}
	}
}

package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// OpaqueToken is a long-lived random credential (refresh or reset token).
// Raw goes back to the client; only the SHA-256 digest of Raw is stored.
type OpaqueToken struct {
	Raw string    // raw value returned to the client
	Exp time.Time // UTC expiration time
}

// NewRefreshToken returns a 32-byte random token valid for ttlDays.
func NewRefreshToken(ttlDays int) (OpaqueToken, error) {
	raw, err := randomURLSafe(32)
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// NewResetToken returns a 32-byte random token valid for ttlHours.
// Reset tokens are deliberately short-lived.
func NewResetToken(ttlHours int) (OpaqueToken, error) {
	raw, err := randomURLSafe(32)
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour),
	}, nil
}

// HashTokenRaw returns the SHA-256 hex digest of a raw opaque token.
// Storing only the hash keeps a database leak from yielding usable tokens.
func HashTokenRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomURLSafe returns a base64url string from n bytes of secure randomness.
func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

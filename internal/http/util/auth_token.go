package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// SecureCompare reports whether presented equals expected without leaking
// timing information. Both sides are hashed first so the comparison length is
// fixed regardless of input length.
func SecureCompare(presented, expected string) bool {
	if presented == "" || expected == "" {
		return false
	}
	a := sha256.Sum256([]byte(presented))
	b := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// BearerToken extracts the token from an Authorization header value, or ""
// when the header is absent or not a bearer scheme.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

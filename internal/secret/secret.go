// Package secret derives and checks the diary's secret digest.
//
// The digest is plain SHA-256 of the phrase bytes, hex-encoded lowercase.
// Only digests are ever stored; phrases never leave the request that
// carried them.
package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const (
	// DigestLength is the length of a hex-encoded SHA-256 digest.
	DigestLength = 64

	// MinPhraseLength is the shortest phrase accepted at initialization.
	MinPhraseLength = 8
)

// Hash returns the lowercase hex SHA-256 digest of phrase.
func Hash(phrase string) string {
	sum := sha256.Sum256([]byte(phrase))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether phrase hashes to digest.
// An empty digest never verifies.
func Verify(phrase, digest string) bool {
	if digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(phrase)), []byte(digest)) == 1
}

// ValidDigest reports whether s has the shape of a digest produced by Hash.
func ValidDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

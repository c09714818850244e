package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Verifier length bounds from RFC 7636.
const (
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// DefaultVerifierLength is used for every login attempt.
	DefaultVerifierLength = 64

	// ChallengeMethodS256 is the only challenge method the accounts service
	// is asked to use.
	ChallengeMethodS256 = "S256"
)

// verifierCharset is the unreserved character set allowed in a code verifier.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// GenerateCodeVerifier returns a fresh random code verifier of the given
// length. The only randomness source is crypto/rand; if it is unavailable the
// login attempt must not proceed, so the error is returned rather than
// falling back to a weaker generator.
func GenerateCodeVerifier(length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", fmt.Errorf("verifier length must be between %d and %d, got %d",
			MinVerifierLength, MaxVerifierLength, length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secure randomness unavailable: %w", err)
	}
	for i, b := range buf {
		buf[i] = verifierCharset[int(b)%len(verifierCharset)]
	}
	return string(buf), nil
}

// ChallengeS256 derives the code challenge for a verifier:
// base64url(SHA-256(verifier)) without padding. The authorization server
// recomputes this independently, so the transform must match byte for byte.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Package token mints the opaque secrets handed to clients (session
// tokens, password reset tokens) and derives the server-side lookup key
// from them. Only the SHA-256 digest of a token is ever persisted, so a
// leaked database does not yield usable credentials.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
)

const rawByteLen = 20

var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Generate returns a new unpredictable token: 20 bytes from the CSPRNG,
// encoded with a lowercase URL-safe alphabet without padding.
func Generate() (string, error) {
	bytes := make([]byte, rawByteLen)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return encoding.EncodeToString(bytes), nil
}

// Hash derives the fixed-length lookup key for a token. Deterministic,
// one-way.
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

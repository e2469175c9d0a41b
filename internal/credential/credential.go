// Package credential derives and verifies salted secret hashes.
//
// A stored credential is a pair (salt, hash) where
//
//	hash = hex(SHA-256(salt + "--" + secret))
//
// The salt is produced once per account by Issue. Later secret changes keep
// the salt and only recompute the hash with Rehash.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	// SaltSize is the number of random bytes behind a salt.
	SaltSize = 32

	separator = "--"
)

// Issue generates a fresh random salt and the hash of secret under it.
func Issue(secret string) (salt, hash string, err error) {
	salt, err = newSalt()
	if err != nil {
		return "", "", err
	}
	return salt, Rehash(salt, secret), nil
}

// Rehash computes the hash of secret under an existing salt.
func Rehash(salt, secret string) string {
	return SecureHash(salt + separator + secret)
}

// Verify reports whether candidate hashes to storedHash under storedSalt.
func Verify(storedSalt, storedHash, candidate string) bool {
	got := Rehash(storedSalt, candidate)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}

// SecureHash returns the lowercase hex SHA-256 digest of s.
func SecureHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Package passwd hashes and verifies user passwords.
//
// New hashes use bcrypt. Databases created by earlier releases stored an
// unsalted SHA-256 hex digest; those still verify so existing accounts keep
// working, and NeedsRehash lets callers upgrade them on next login.
package passwd

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxLen is the longest password bcrypt accepts, in bytes.
const MaxLen = 72

// Hash returns a bcrypt hash of plain.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hash.
func Verify(hash, plain string) bool {
	if isLegacy(hash) {
		sum := sha256.Sum256([]byte(plain))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(hash))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NeedsRehash reports whether hash uses the legacy digest.
func NeedsRehash(hash string) bool { return isLegacy(hash) }

func isLegacy(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Iteration count follows the OWASP recommended minimum.
const (
	pbkdf2Iterations = 100000
	keyLength        = 32
	saltLength       = 32
)

// hashPassword derives a PBKDF2-SHA256 hash with a fresh random salt.
// Both hash and salt are returned base64 encoded for storage.
func hashPassword(password string) (hash, salt string, err error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), raw, pbkdf2Iterations, keyLength, sha256.New)

	return base64.StdEncoding.EncodeToString(key), base64.StdEncoding.EncodeToString(raw), nil
}

// verifyPassword re-derives the key with the stored salt and compares in
// constant time.
func verifyPassword(password, hash, salt string) bool {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	rawHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false
	}

	key := pbkdf2.Key([]byte(password), rawSalt, pbkdf2Iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, rawHash) == 1
}

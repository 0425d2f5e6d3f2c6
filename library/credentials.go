package library

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PasswordHasher abstracts credential hashing so the registries never see the
// algorithm. Digest and salt are opaque strings to every other component.
type PasswordHasher interface {
	// Hash derives a digest from the password with a freshly generated salt.
	Hash(password string) (digest, salt string, err error)
	// Verify recomputes the digest with the stored salt and compares in
	// constant time.
	Verify(password, salt, digest string) bool
}

// PBKDF2Hasher derives a 32-byte key with PBKDF2-HMAC-SHA256. The zero value
// uses the default iteration count.
type PBKDF2Hasher struct {
	Iterations int
}

const (
	defaultIterations = 210_000
	saltSize          = 16
	keySize           = 32
)

func (h PBKDF2Hasher) iterations() int {
	if h.Iterations > 0 {
		return h.Iterations
	}
	return defaultIterations
}

func (h PBKDF2Hasher) Hash(password string) (string, string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, h.iterations(), keySize, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

func (h PBKDF2Hasher) Verify(password, salt, digest string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), rawSalt, h.iterations(), len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

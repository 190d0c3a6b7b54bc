// Package vaultcrypt implements key derivation and authenticated encryption
// for the vault. All record payloads are sealed with a key derived from the
// user's master password; nothing in this package touches the database.
package vaultcrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the length of the per-database KDF salt. The salt is
	// generated once when the vault is created and never regenerated.
	SaltSize = 16

	// DefaultIterations is the PBKDF2 iteration count for new vaults.
	DefaultIterations = 100_000

	// MinIterations is the lowest iteration count the KDF will accept.
	// The active count is persisted next to the salt so it can be raised
	// later without locking out existing databases.
	MinIterations = 100_000
)

// DeriveKey derives a KeySize-byte encryption key from a master password and
// salt using PBKDF2-HMAC-SHA256. Derivation is deterministic: the same
// password, salt, and iteration count always produce the same key.
// Malformed inputs are programmer errors and are rejected loudly rather than
// silently clamped.
func DeriveKey(password string, salt []byte, iterations int) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("derive key: empty password")
	}
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("derive key: salt is %d bytes, need at least %d", len(salt), SaltSize)
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("derive key: %d iterations is below the minimum %d", iterations, MinIterations)
	}

	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New), nil
}

// GenerateSalt produces a cryptographically random SaltSize-byte salt.
// Call it exactly once per new database.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Zero overwrites b in place. Used to wipe key material when a session ends.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

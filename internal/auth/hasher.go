// Package auth provides password hashing, token issuance, and the signup and
// signin flows composed from them.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, one-way digest of the password.
	Hash(password string) (string, error)

	// Verify checks the password against a digest. A mismatch is
	// (false, nil); a digest that cannot be parsed is (false, error)
	// wrapping ErrCorruptDigest.
	Verify(password, digest string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt at the default cost.
// It holds no state and is safe for concurrent use.
type BcryptHasher struct{}

// NewBcryptHasher creates a new BcryptHasher.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{}
}

// Hash produces a bcrypt digest of the password. The digest embeds its own
// salt and cost factor; it is never logged or returned to API callers.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify checks the password against a bcrypt digest.
func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrCorruptDigest, err)
}

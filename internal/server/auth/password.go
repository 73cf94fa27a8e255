// Package auth holds the authentication core of the server: password
// hashing, access token issuance and verification, Google ID token
// verification and the bearer-token gate used by protected routes.
package auth

import (
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the given bcrypt cost. A cost
// outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext. Every call yields a
// different hash for the same input.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, maxPasswordBytes)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed hash never
// matches.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// UnusableHash hashes a random secret that is immediately discarded. It is
// stored for accounts created through federated sign-in so that password
// login against them can never succeed.
func (h *PasswordHasher) UnusableHash() (string, error) {
	secret, err := common.MakeRandHexString(32)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return h.Hash(secret)
}

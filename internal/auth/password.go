// Package auth holds the caller-identity plumbing and password hashing.
//
// There is no login flow. Users come from the seeded catalog fixture, and
// their credentials are stored as bcrypt hashes so a real authentication layer
// can be added later without migrating plaintext rows.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used outside tests.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit; longer input is silently truncated.
const maxPasswordBytes = 72

// PasswordHasher hashes user credentials before they are stored.
//
// The cost is a field so tests can run at bcrypt.MinCost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given cost. A cost outside
// bcrypt's accepted range falls back to DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
//
// Empty passwords and passwords over 72 bytes are rejected.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("auth: password is required")
	}
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// HashIfPlain hashes value unless it already is a bcrypt hash. The seed
// fixture may carry either form.
func (h *PasswordHasher) HashIfPlain(value string) (string, error) {
	if IsHashed(value) {
		return value, nil
	}
	return h.Hash(value)
}

// IsHashed reports whether value looks like a bcrypt hash with a valid cost.
func IsHashed(value string) bool {
	if !strings.HasPrefix(value, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}

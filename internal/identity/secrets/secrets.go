// Package secrets hashes and verifies user credentials with bcrypt.
package secrets

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "carebook/pkg/domain-errors"
)

// Hasher hashes secrets at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher clamps cost into bcrypt's accepted range; zero means the
// library default.
func NewHasher(cost int) Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return Hasher{cost: cost}
}

// Hash creates a bcrypt hash of the provided secret.
func (h Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether secret matches hash. Malformed hashes never match.
func Matches(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

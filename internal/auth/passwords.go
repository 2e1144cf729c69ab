// Package auth provides the identity-broker primitives: driver credential
// hashing, driver bearer tokens, and dispatcher session storage.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a driver password with bcrypt at the given cost.
func HashPassword(password string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// CheckPassword reports whether password matches hash. bcrypt's comparison is
// constant-time with respect to the hashed value.
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

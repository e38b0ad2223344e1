// shared/go-utils/password.go
package utils

import "golang.org/x/crypto/bcrypt"

// DefaultPasswordCost is the bcrypt work factor for claimant passwords.
const DefaultPasswordCost = 12

// HashPassword generates a bcrypt hash of the password. A cost outside
// bcrypt's accepted range falls back to DefaultPasswordCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

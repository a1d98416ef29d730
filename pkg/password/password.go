package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a plaintext password using bcrypt at the default cost.
func Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	return string(bytes), err
}

// Check reports whether plaintext matches the stored hash.
func Check(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

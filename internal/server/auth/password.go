// Package auth implements the cryptographic primitives of the credential
// lifecycle: bcrypt password hashing and signed, purpose-tagged tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of the password with a random per-call
// salt, so hashing the same password twice yields different outputs.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether candidate matches the stored bcrypt hash.
// A malformed stored hash verifies as false rather than surfacing an error.
func VerifyPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

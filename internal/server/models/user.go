package models

import "time"

// User is a stored account record. ID is the store-assigned identity key used
// as the session subject; Email is the unique login identifier. PasswordHash
// is a bcrypt hash, never the plaintext secret.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

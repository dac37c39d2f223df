// Package models holds the persisted record types shared by repositories
// and services.
package models

import "time"

// User is an account row in the users table. ID, Username, and Email are
// unique across all users; PasswordHash is an opaque PHC-encoded string and
// never the plaintext password.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

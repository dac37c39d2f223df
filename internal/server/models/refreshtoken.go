package models

import "time"

// RefreshToken is a single-use, server-tracked token that can mint a new
// token pair until ExpiresAt. Rotation removes the row.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

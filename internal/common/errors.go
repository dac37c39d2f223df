// Package common defines shared sentinel errors and small utilities used
// across TillKeeper components. Callers should use errors.Is/errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
	// ErrDuplicate covers a unique-constraint violation the engine could not
	// attribute to a specific column.
	ErrDuplicate = errors.New("already exists")
	ErrStorage   = errors.New("storage error")

	// Hasher errors. A wrong password is not an error; this fires only when a
	// stored hash string cannot be parsed.
	ErrHashMalformed = errors.New("malformed password hash")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Service-level errors crossing the external boundary.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")
)

// ValidationError reports which input field violated which rule. It carries
// no internal detail beyond the broken rule itself.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Rule)
}

// Package users declares the storage contract for user accounts and its
// engine-specific implementations. Both adapters behave identically: the
// engine choice is made once at startup and never observable through the
// returned values.
package users

import (
	"context"

	"github.com/poslynx/tillkeeper/internal/server/models"
)

// Repository defines account persistence operations.
//
// Create assigns a fresh unique ID and creation timestamp and relies on the
// engine's unique constraints for username/email: a violation surfaces as
// common.ErrDuplicateUsername or common.ErrDuplicateEmail (never detected by
// a prior read, which would race). Lookups return common.ErrNotFound for an
// absent row; any other failure wraps common.ErrStorage.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

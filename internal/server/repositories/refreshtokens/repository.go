// Package refreshtokens declares the storage contract for server-tracked
// refresh tokens and its engine-specific implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/poslynx/tillkeeper/internal/server/models"
)

// Repository defines operations for issuing and consuming refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Consume deletes the token row and returns its metadata in one
	// statement. When several callers race on the same token, exactly one
	// gets the row; the rest get common.ErrNotFound. The expiry check is the
	// caller's job.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
}

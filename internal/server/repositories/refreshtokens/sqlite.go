package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/poslynx/tillkeeper/internal/common"
	"github.com/poslynx/tillkeeper/internal/dbx"
	"github.com/poslynx/tillkeeper/internal/server/models"
)

// SQLiteRepository implements Repository for SQLite. Expiries are stored as
// RFC 3339 text and parsed back here.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	expiresAt := time.Now().UTC().Add(validity).Truncate(time.Microsecond)
	if _, err := r.db.ExecContext(ctx, query, token, userID, expiresAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = ?
		RETURNING user_id, expires_at
	`
	rt := &models.RefreshToken{Token: token}
	var expiresAt string
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&rt.UserID, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing expiry %q: %v", common.ErrStorage, expiresAt, err)
	}
	rt.ExpiresAt = parsed.UTC()
	return rt, nil
}

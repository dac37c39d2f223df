package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/poslynx/tillkeeper/internal/common"
	"github.com/poslynx/tillkeeper/internal/dbx"
	"github.com/poslynx/tillkeeper/internal/server/models"
)

// SQLiteRepository implements Repository for SQLite. Timestamps are stored
// as RFC 3339 text and parsed back here, so callers observe the same
// semantic values as with the Postgres adapter.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		if dup := classifySQLiteUniqueViolation(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return &u, nil
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var createdAt string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	user.CreatedAt, err = parseSQLiteTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return user, nil
}

// parseSQLiteTime accepts both the RFC 3339 text this adapter writes and the
// "YYYY-MM-DD HH:MM:SS" form produced by the column default.
func parseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %v", s, err)
	}
	return t.UTC(), nil
}

// classifySQLiteUniqueViolation maps a unique-constraint failure to the
// duplicate error for the column named in the message, or nil if err is
// something else.
func classifySQLiteUniqueViolation(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "users.username"):
		return common.ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return common.ErrDuplicateEmail
	default:
		return common.ErrDuplicate
	}
}

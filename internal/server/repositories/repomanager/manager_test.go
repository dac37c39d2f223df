package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslynx/tillkeeper/internal/common"
	"github.com/poslynx/tillkeeper/internal/server/models"
)

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New("mysql")
	assert.Error(t, err)

	_, err = Open("mysql", "dsn")
	assert.Error(t, err)
}

// The SQLite path is exercised for real: open an in-memory database, run the
// embedded migrations, and drive both repositories through the schema they
// create.
func TestSQLiteManager_EndToEnd(t *testing.T) {
	ctx := context.Background()

	db, err := Open(EngineSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := New(EngineSQLite)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))

	user, err := m.Users(db).Create(ctx, &models.User{
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "h",
	})
	require.NoError(t, err)

	_, err = m.Users(db).Create(ctx, &models.User{
		Username:     "alice",
		Email:        "alice2@x.com",
		PasswordHash: "h",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)

	require.NoError(t, m.RefreshTokens(db).Create(ctx, user.ID, "tok-1", time.Hour))

	rt, err := m.RefreshTokens(db).Consume(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, rt.UserID)
}

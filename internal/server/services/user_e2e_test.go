package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslynx/tillkeeper/internal/common"
	"github.com/poslynx/tillkeeper/internal/cryptox"
	"github.com/poslynx/tillkeeper/internal/logging"
	"github.com/poslynx/tillkeeper/internal/server/config"
	"github.com/poslynx/tillkeeper/internal/server/repositories/repomanager"
)

// Full register/login/refresh cycle over a real SQLite database and the real
// argon2 hasher.
func TestUserService_EndToEnd(t *testing.T) {
	ctx := context.Background()

	db, err := repomanager.Open(repomanager.EngineSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos, err := repomanager.New(repomanager.EngineSQLite)
	require.NoError(t, err)
	require.NoError(t, repos.RunMigrations(ctx, db))

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &config.Config{
		JWTSecret:           "e2e-secret",
		AccessTokenTTLSecs:  900,
		RefreshTokenTTLDays: 30,
	}

	svc, err := NewUserService(db, repos, cryptox.NewArgon2Hasher(), logger, cfg)
	require.NoError(t, err)

	user, err := svc.Register(ctx, "alice", "alice@x.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotContains(t, user.PasswordHash, "correct-horse-battery")

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	pair, err := svc.Login(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// Rotation: the old refresh token yields a new pair exactly once.
	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	// The rotated token is itself good for one use.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

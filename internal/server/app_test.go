package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslynx/tillkeeper/internal/server/config"
)

func testAppConfig(engine, dsn string) *config.Config {
	return &config.Config{
		Engine:              engine,
		DatabaseDSN:         dsn,
		HTTPAddr:            ":0",
		JWTSecret:           "app-test-secret",
		AccessTokenTTLSecs:  900,
		RefreshTokenTTLDays: 30,
	}
}

func TestNewApp_UnknownEngine(t *testing.T) {
	_, err := NewApp(context.Background(), testAppConfig("mysql", "dsn"))
	assert.Error(t, err)
}

func TestNewApp_UnusableDatabase(t *testing.T) {
	_, err := NewApp(context.Background(), testAppConfig("sqlite", "/no/such/dir/tillkeeper.db"))
	assert.Error(t, err)
}

func TestNewApp_SQLite(t *testing.T) {
	app, err := NewApp(context.Background(), testAppConfig("sqlite", ":memory:"))
	require.NoError(t, err)
	require.NoError(t, app.db.Close())
}

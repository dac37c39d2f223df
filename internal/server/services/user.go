// Package services contains the server-side business logic. This file
// implements UserService: registration, login, access-token checks, and
// refresh-token rotation. All failures crossing this boundary are members of
// the common error taxonomy; storage and hashing faults are logged here and
// surfaced as common.ErrInternal.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/poslynx/tillkeeper/internal/common"
	"github.com/poslynx/tillkeeper/internal/dbx"
	"github.com/poslynx/tillkeeper/internal/logging"
	"github.com/poslynx/tillkeeper/internal/server/auth"
	"github.com/poslynx/tillkeeper/internal/server/config"
	"github.com/poslynx/tillkeeper/internal/server/models"
	"github.com/poslynx/tillkeeper/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 8
	maxFieldLength    = 255
)

// PasswordHasher is the credential-hashing contract the service depends on.
// Verify returns false (not an error) for a well-formed but non-matching
// hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides the account operations:
//   - Register: validate input, hash the password, create the user
//   - Login: verify credentials and mint a token pair
//   - Refresh: rotate a refresh token and mint a new pair
//   - Authenticate: resolve an access token to a user ID
//   - GetByID: look up an account
type UserService struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	hasher          PasswordHasher
	logger          logging.Logger
	jwtSecret       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration

	// dummyHash is verified against when a login names an unknown user, so
	// response timing does not reveal whether the username exists.
	dummyHash string
}

// NewUserService constructs a UserService from the repositories, hasher, and
// server config.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, hasher PasswordHasher, logger logging.Logger, cfg *config.Config) (*UserService, error) {
	dummyHash, err := hasher.Hash("tillkeeper-timing-placeholder")
	if err != nil {
		return nil, err
	}

	return &UserService{
		db:              db,
		repos:           repos,
		hasher:          hasher,
		logger:          logger,
		jwtSecret:       []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL(),
		refreshTokenTTL: cfg.RefreshTokenTTL(),
		dummyHash:       dummyHash,
	}, nil
}

// Register creates a new account. The plaintext password is hashed before it
// reaches storage and is never logged.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "err", err)
		return nil, common.ErrInternal
	}

	user, err := s.repos.Users(s.db).Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateUsername),
			errors.Is(err, common.ErrDuplicateEmail),
			errors.Is(err, common.ErrDuplicate):
			return nil, err
		default:
			s.logger.Error(ctx, "user creation failed", "username", username, "err", err)
			return nil, common.ErrInternal
		}
	}

	return user, nil
}

// Login verifies the credentials and, on success, returns a new token pair.
// Unknown username and wrong password are indistinguishable to the caller,
// both in error kind and in response timing.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Burn a verification anyway; see dummyHash.
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "err", err)
		return nil, common.ErrInternal
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "err", err)
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		s.logger.Error(ctx, "token pair generation failed", "user_id", user.ID, "err", err)
		return nil, common.ErrInternal
	}

	s.logger.Debug(ctx, "issued token pair", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh pair is issued in one transaction. Concurrent calls with the same
// token have exactly one winner; everyone else observes the token as already
// consumed. Invalid, expired, and already-used tokens all collapse to
// common.ErrInvalidCredentials.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repos.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		if token.ExpiresAt.Before(time.Now()) {
			return common.ErrTokenExpired
		}

		pair, err = s.generateTokenPair(ctx, token.UserID, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "refresh token rotation failed", "err", err)
		return nil, common.ErrInternal
	}
	return pair, nil
}

// Authenticate resolves an access token to the user ID it was issued for.
// Any token defect yields common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return "", common.ErrInvalidCredentials
	}
	return userID, nil
}

// GetByID returns the account with the given ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "err", err)
		return nil, common.ErrInternal
	}
	return user, nil
}

// --- helpers below ---

func (s *UserService) generateTokenPair(ctx context.Context, userID string, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	if err := s.repos.RefreshTokens(db).Create(ctx, userID, refresh, s.refreshTokenTTL); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func validateRegistration(username, email, password string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return &common.ValidationError{Field: "username", Rule: "must not be empty"}
	case len(username) > maxFieldLength:
		return &common.ValidationError{Field: "username", Rule: "too long"}
	case strings.TrimSpace(email) == "":
		return &common.ValidationError{Field: "email", Rule: "must not be empty"}
	case len(email) > maxFieldLength:
		return &common.ValidationError{Field: "email", Rule: "too long"}
	case !strings.Contains(email, "@"):
		return &common.ValidationError{Field: "email", Rule: "must be an email address"}
	case len(password) < minPasswordLength:
		return &common.ValidationError{Field: "password", Rule: "must be at least 8 characters"}
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"blockvault/internal/common"
	"blockvault/internal/cryptox"
	"blockvault/internal/logging"
	"blockvault/internal/server/auth"
	"blockvault/internal/server/models"
	"blockvault/internal/server/repositories/repomanager"
)

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService handles registration and the token lifecycle.
type UserService struct {
	db                   *sql.DB
	repos                repomanager.RepositoryManager
	jwtSecret            []byte
	accessTokenValidity  time.Duration
	refreshTokenValidity time.Duration
	logger               logging.Logger
}

func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, jwtSecret []byte, accessValidity, refreshValidity time.Duration, logger logging.Logger) *UserService {
	return &UserService{
		db:                   db,
		repos:                repos,
		jwtSecret:            jwtSecret,
		accessTokenValidity:  accessValidity,
		refreshTokenValidity: refreshValidity,
		logger:               logger,
	}
}

const uniqueViolation = "23505"

// Register creates an account with an argon2id password hash. A taken login
// surfaces as common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, login, password string) (*models.User, error) {
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", common.ErrorValidation)
	}

	hash, err := cryptox.HashPassword([]byte(password))
	if err != nil {
		return nil, storageErr(err)
	}

	user, err := s.repos.Users(s.db).Create(ctx, &models.User{Login: login, PasswordHash: hash})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: login already taken", common.ErrorConflict)
		}
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "user registered", "login", login)
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown login and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storageErr(err)
	}

	ok, err := cryptox.VerifyPassword([]byte(password), user.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates a refresh token: the presented token is validated,
// deleted, and a fresh pair is issued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repos.RefreshTokens(s.db)

	row, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, storageErr(err)
	}
	if time.Now().After(row.Expires) {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	if err := repo.Delete(ctx, refreshToken); err != nil {
		return nil, storageErr(err)
	}

	return s.issueTokens(ctx, row.UserID)
}

// Logout invalidates a refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repos.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return storageErr(err)
	}
	return nil
}

// VerifyAccessToken returns the user id carried by a valid access token.
func (s *UserService) VerifyAccessToken(tokenString string) (string, error) {
	userID, err := auth.GetUserIDFromToken(tokenString, s.jwtSecret)
	if err != nil {
		return "", common.ErrInvalidToken
	}
	return userID, nil
}

func (s *UserService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, storageErr(err)
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, storageErr(err)
	}

	if err := s.repos.RefreshTokens(s.db).Create(ctx, userID, refreshToken, s.refreshTokenValidity); err != nil {
		return nil, storageErr(err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

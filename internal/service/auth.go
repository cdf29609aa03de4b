package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/repository"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// TokenSigner issues signed access tokens for a user id.
type TokenSigner interface {
	Sign(userID string) (string, error)
}

// UserEventPublisher publishes user lifecycle events. Implementations must
// not fail the calling operation; publish errors are logged and swallowed.
type UserEventPublisher interface {
	UserRegistered(ctx context.Context, user *domain.User)
	UserDeleted(ctx context.Context, userID string)
}

// SignUpInput carries the fields of a registration request.
type SignUpInput struct {
	Username     string `json:"username" validate:"required,min=1,max=30"`
	Password     string `json:"password" validate:"required,min=1,max=50"`
	FirstName    string `json:"firstName" validate:"required,min=1,max=50"`
	LastName     string `json:"lastName" validate:"required,max=50"`
	TeamPassword string `json:"teamPassword" validate:"required"`
}

// AuthService implements credential verification and the session token
// lifecycle. Access tokens are stateless JWTs; refresh tokens are stored
// rows consumed exactly once on rotation.
type AuthService struct {
	users        repository.UserRepository
	tokens       repository.RefreshTokenRepository
	signer       TokenSigner
	events       UserEventPublisher
	teamPassword string
	logger       *slog.Logger
	now          func() time.Time
}

// NewAuthService creates the authentication service. The events publisher
// may be nil when eventing is disabled.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	signer TokenSigner,
	events UserEventPublisher,
	teamPassword string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		tokens:       tokens,
		signer:       signer,
		events:       events,
		teamPassword: teamPassword,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	cpy := *s
	cpy.now = now
	return &cpy
}

// Login verifies a username and password and issues a fresh token pair.
// The same 401 status covers unknown users and wrong passwords, but the
// body code distinguishes them for the client.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NoSuchUser()
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, apperrors.IncorrectPassword()
	}

	pair, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// SignUp registers a new user and issues their first token pair. The team
// password gate runs before anything is persisted, so a wrong team password
// never creates an account.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.TokenPair, error) {
	if in.TeamPassword != s.teamPassword {
		return nil, apperrors.IncorrectTeamPassword()
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.UserRegistered(ctx, user)
	}

	pair, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return pair, nil
}

// Refresh rotates a refresh token. The stored token is consumed first, so
// concurrent refreshes with the same value cannot both succeed, and even an
// expired token is burned by the attempt.
func (s *AuthService) Refresh(ctx context.Context, value string) (*domain.TokenPair, error) {
	token, err := s.tokens.Consume(ctx, value)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidRefreshToken()
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	if token.Expired(s.now()) {
		return nil, apperrors.ExpiredRefreshToken()
	}

	return s.issue(ctx, token.UserID)
}

// Logout revokes a single refresh token. The access token remains valid
// until its expiry; only the refresh chain is cut.
func (s *AuthService) Logout(ctx context.Context, value string) error {
	if err := s.tokens.Delete(ctx, value); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.RefreshTokenNotFound()
		}
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// issue creates a refresh token row and signs an access token. If signing
// fails after the row was created, the row is deleted again so no orphaned
// refresh token is left behind.
func (s *AuthService) issue(ctx context.Context, userID string) (*domain.TokenPair, error) {
	value, err := auth.NewRefreshTokenValue()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	token := &domain.RefreshToken{
		Value:     value,
		UserID:    userID,
		ExpiresAt: now.Add(refreshTokenTTL),
		CreatedAt: now,
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	accessToken, err := s.signer.Sign(userID)
	if err != nil {
		if delErr := s.tokens.Delete(ctx, value); delErr != nil && !errors.Is(delErr, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to roll back refresh token after signing error",
				slog.String("user_id", userID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: value,
	}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/repository"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

// AvatarStore persists and serves profile pictures.
type AvatarStore interface {
	Save(userID string, image io.Reader) error
	Open(userID string, size int) (io.ReadCloser, error)
	Remove(userID string) error
}

// UpdateProfileInput carries the optional fields of a profile update. Nil
// fields are left unchanged.
type UpdateProfileInput struct {
	Username  *string   `json:"username" validate:"omitempty,min=1,max=30"`
	Password  *string   `json:"password" validate:"omitempty,min=1,max=50"`
	FirstName *string   `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName  *string   `json:"lastName" validate:"omitempty,max=50"`
	Avatar    io.Reader `json:"-"`
}

// UserService implements account self-management and the member directory.
type UserService struct {
	users   repository.UserRepository
	tokens  repository.RefreshTokenRepository
	avatars AvatarStore
	events  UserEventPublisher
	logger  *slog.Logger
}

// NewUserService creates the user service. avatars and events may be nil
// when the corresponding features are disabled.
func NewUserService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	avatars AvatarStore,
	events UserEventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:   users,
		tokens:  tokens,
		avatars: avatars,
		events:  events,
		logger:  logger,
	}
}

// Me returns the authenticated user's own profile. A valid access token for
// a deleted account yields DELETED_ACCOUNT rather than a generic 404.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.DeletedAccount()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &domain.Profile{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// UpdateMe applies a partial profile update. Password changes are re-hashed;
// the plaintext never touches storage.
func (s *UserService) UpdateMe(ctx context.Context, userID string, in UpdateProfileInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.DeletedAccount()
		}
		return fmt.Errorf("get user: %w", err)
	}

	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.DeletedAccount()
		}
		return err
	}

	if in.Avatar != nil && s.avatars != nil {
		if err := s.avatars.Save(userID, in.Avatar); err != nil {
			return fmt.Errorf("save avatar: %w", err)
		}
	}

	return nil
}

// DeleteMe removes the account and revokes all of its refresh tokens.
// Reports keep existing with a null author, and the avatar file is cleaned
// up best effort.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.DeletedAccount()
		}
		return fmt.Errorf("delete user: %w", err)
	}

	// The FK cascade removes the rows too; revoking explicitly keeps the
	// sessions dead even if the schema loses the cascade.
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke tokens of deleted user",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if s.avatars != nil {
		if err := s.avatars.Remove(userID); err != nil {
			s.logger.WarnContext(ctx, "failed to remove avatar of deleted user",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.events != nil {
		s.events.UserDeleted(ctx, userID)
	}

	s.logger.InfoContext(ctx, "user account deleted", slog.String("user_id", userID))
	return nil
}

// List returns the public directory of all team members.
func (s *UserService) List(ctx context.Context) ([]domain.UserDisplay, error) {
	return s.users.List(ctx)
}

// Avatar opens a user's avatar scaled to the requested size.
func (s *UserService) Avatar(ctx context.Context, userID string, size int) (io.ReadCloser, error) {
	if s.avatars == nil {
		return nil, apperrors.AvatarNotFound()
	}
	rc, err := s.avatars.Open(userID, size)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.AvatarNotFound()
		}
		return nil, fmt.Errorf("open avatar: %w", err)
	}
	return rc, nil
}

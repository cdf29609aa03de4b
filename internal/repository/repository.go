// Package repository defines the persistence interfaces consumed by the
// service layer.
package repository

import (
	"context"
	"time"

	"github.com/oakrobotics/scoutbase/internal/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.UserDisplay, error)
}

// RefreshTokenRepository persists refresh tokens. Token values are stored
// verbatim; they are high-entropy random secrets, not user passwords.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error

	// Consume atomically deletes the token and returns the stored record.
	// Under concurrent calls with the same value exactly one caller
	// succeeds; the rest observe pkg/errors.ErrNotFound.
	Consume(ctx context.Context, value string) (*domain.RefreshToken, error)

	Delete(ctx context.Context, value string) error
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired removes tokens whose expiry is before the cutoff and
	// reports how many rows were purged.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReportRepository persists match scouting reports.
type ReportRepository interface {
	Create(ctx context.Context, r *domain.Report, userID string) error
	CreateBatch(ctx context.Context, reports []domain.Report, userID string) error
	GetByID(ctx context.Context, id int64) (*domain.Report, error)
	List(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportSummary, error)
	ListAll(ctx context.Context) ([]domain.Report, error)
	Count(ctx context.Context) (int64, error)
}

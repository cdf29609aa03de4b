package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/pkg/database"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

func newTokenRepo(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRefreshTokenRepository(mock), mock
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	repo, mock := newTokenRepo(t)

	now := time.Now().UTC()
	token := &domain.RefreshToken{
		Value:     "tok-abc",
		UserID:    "user-1",
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(token.Value, token.UserID, token.ExpiresAt, token.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), token)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Consume_ReturnsRecord(t *testing.T) {
	repo, mock := newTokenRepo(t)

	now := time.Now().UTC()
	expires := now.Add(24 * time.Hour)

	mock.ExpectQuery("DELETE FROM refresh_tokens").
		WithArgs("tok-abc").
		WillReturnRows(pgxmock.NewRows([]string{"value", "user_id", "expires_at", "created_at"}).
			AddRow("tok-abc", "user-1", expires, now))

	token, err := repo.Consume(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", token.UserID)
	assert.Equal(t, expires, token.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Consume_UnknownValue(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectQuery("DELETE FROM refresh_tokens").
		WithArgs("no-such-token").
		WillReturnRows(pgxmock.NewRows([]string{"value", "user_id", "expires_at", "created_at"}))

	_, err := repo.Consume(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	repo, mock := newTokenRepo(t)

	cutoff := time.Now().UTC()
	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 17))

	purged, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(17), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByUserID(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.DeleteByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

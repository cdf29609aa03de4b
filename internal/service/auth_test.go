package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/domain"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

const testTeamPassword = "ScoutingIsFun!"

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestAuthService_Login_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	users.On("GetByUsername", mock.Anything, "scout42").Return(&domain.User{
		ID:           "user-1",
		Username:     "scout42",
		PasswordHash: hashOf(t, "hunter2"),
	}, nil)
	tokens.On("Create", mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	pair, err := svc.Login(context.Background(), "scout42", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "access-for-user-1", pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Login_NoSuchUser(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.Equal(t, "NO_SUCH_USER", apperrors.Code(err))
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	users.On("GetByUsername", mock.Anything, "scout42").Return(&domain.User{
		ID:           "user-1",
		PasswordHash: hashOf(t, "hunter2"),
	}, nil)

	_, err := svc.Login(context.Background(), "scout42", "wrong")
	assert.Equal(t, "INCORRECT_PASSWORD", apperrors.Code(err))
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_SignUp_Success(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "newscout" &&
			u.PasswordHash != "" &&
			u.PasswordHash != "hunter2"
	})).Return(nil)
	tokens.On("Create", mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)

	pair, err := svc.SignUp(context.Background(), SignUpInput{
		Username:     "newscout",
		Password:     "hunter2",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		TeamPassword: testTeamPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_SignUp_WrongTeamPassword_CreatesNothing(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Username:     "newscout",
		Password:     "hunter2",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		TeamPassword: "not it",
	})
	assert.Equal(t, "INCORRECT_TEAM_PASSWORD", apperrors.Code(err))
	assert.Equal(t, 401, apperrors.HTTPStatus(err))

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_SignUp_UsernameTaken(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockTokenRepo)
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	users.On("Create", mock.Anything, mock.Anything).Return(apperrors.UsernameTaken())

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Username:     "scout42",
		Password:     "hunter2",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		TeamPassword: testTeamPassword,
	})
	assert.Equal(t, "USERNAME_TAKEN", apperrors.Code(err))
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_Rotates(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	old := &domain.RefreshToken{
		Value:     "old-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, tokens.Create(context.Background(), old))

	pair, err := svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", pair.RefreshToken)

	// The old value is consumed: a second exchange must fail.
	_, err = svc.Refresh(context.Background(), "old-token")
	assert.Equal(t, "INVALID_REFRESH_TOKEN", apperrors.Code(err))

	// Exactly one live token remains, the newly issued one.
	assert.Equal(t, 1, tokens.len())
}

func TestAuthService_Refresh_Unknown(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.Equal(t, "INVALID_REFRESH_TOKEN", apperrors.Code(err))
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}

func TestAuthService_Refresh_Expired_IsBurned(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	expired := &domain.RefreshToken{
		Value:     "stale-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-31 * 24 * time.Hour),
	}
	require.NoError(t, tokens.Create(context.Background(), expired))

	_, err := svc.Refresh(context.Background(), "stale-token")
	assert.Equal(t, "EXPIRED_REFRESH_TOKEN", apperrors.Code(err))

	// The failed exchange still consumed the row.
	assert.Equal(t, 0, tokens.len())
	_, err = svc.Refresh(context.Background(), "stale-token")
	assert.Equal(t, "INVALID_REFRESH_TOKEN", apperrors.Code(err))
}

func TestAuthService_Refresh_ConcurrentSingleUse(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	token := &domain.RefreshToken{
		Value:     "contested",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, tokens.Create(context.Background(), token))

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), "contested")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, invalid int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.Code(err) == "INVALID_REFRESH_TOKEN":
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, invalid)
}

func TestAuthService_Issue_CompensatesOnSigningFailure(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	signer := &stubSigner{err: errors.New("hmac unavailable")}
	svc := NewAuthService(users, tokens, signer, nil, testTeamPassword, testLogger())

	users.On("GetByUsername", mock.Anything, "scout42").Return(&domain.User{
		ID:           "user-1",
		PasswordHash: hashOf(t, "hunter2"),
	}, nil)

	_, err := svc.Login(context.Background(), "scout42", "hunter2")
	require.Error(t, err)

	// The refresh token created before signing failed must be rolled back.
	assert.Equal(t, 0, tokens.len())
}

func TestAuthService_Logout(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newMemTokenRepo()
	svc := NewAuthService(users, tokens, &stubSigner{}, nil, testTeamPassword, testLogger())

	token := &domain.RefreshToken{
		Value:     "session-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, tokens.Create(context.Background(), token))

	require.NoError(t, svc.Logout(context.Background(), "session-token"))
	assert.Equal(t, 0, tokens.len())

	err := svc.Logout(context.Background(), "session-token")
	assert.Equal(t, "REFRESH_TOKEN_NOT_FOUND", apperrors.Code(err))
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

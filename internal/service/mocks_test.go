package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/oakrobotics/scoutbase/internal/domain"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.UserDisplay, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]domain.UserDisplay), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepo) Consume(ctx context.Context, value string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, value)
	if t := args.Get(0); t != nil {
		return t.(*domain.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenRepo) Delete(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, r *domain.Report, userID string) error {
	return m.Called(ctx, r, userID).Error(0)
}

func (m *mockReportRepo) CreateBatch(ctx context.Context, reports []domain.Report, userID string) error {
	return m.Called(ctx, reports, userID).Error(0)
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*domain.Report, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) List(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportSummary, error) {
	args := m.Called(ctx, filter)
	if r := args.Get(0); r != nil {
		return r.([]domain.ReportSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) ListAll(ctx context.Context) ([]domain.Report, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]domain.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// stubSigner signs deterministic access tokens, or fails on demand.
type stubSigner struct {
	err error
}

func (s *stubSigner) Sign(userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "access-for-" + userID, nil
}

// memTokenRepo is an in-memory refresh token store with the same consume
// semantics as the SQL implementation. Used for concurrency tests.
type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]domain.RefreshToken)}
}

func (m *memTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Value] = *token
	return nil
}

func (m *memTokenRepo) Consume(_ context.Context, value string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[value]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(m.tokens, value)
	return &token, nil
}

func (m *memTokenRepo) Delete(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[value]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tokens, value)
	return nil
}

func (m *memTokenRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for v, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, v)
		}
	}
	return nil
}

func (m *memTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for v, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.tokens, v)
			n++
		}
	}
	return n, nil
}

func (m *memTokenRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakrobotics/scoutbase/internal/auth"
	"github.com/oakrobotics/scoutbase/internal/avatar"
	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/service"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/health"
)

// --- In-memory repositories ---

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return apperrors.UsernameTaken()
		}
	}
	cpy := *u
	m.users[u.ID] = &cpy
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperrors.ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Username == u.Username {
			return apperrors.UsernameTaken()
		}
	}
	cpy := *u
	m.users[u.ID] = &cpy
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) List(_ context.Context) ([]domain.UserDisplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserDisplay, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Display())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *memTokens) Create(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := *token
	m.tokens[token.Value] = &cpy
	return nil
}

func (m *memTokens) Consume(_ context.Context, value string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[value]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(m.tokens, value)
	return token, nil
}

func (m *memTokens) Delete(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[value]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tokens, value)
	return nil
}

func (m *memTokens) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for value, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, value)
		}
	}
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for value, token := range m.tokens {
		if token.ExpiresAt.Before(cutoff) {
			delete(m.tokens, value)
			n++
		}
	}
	return n, nil
}

type memReports struct {
	mu      sync.Mutex
	nextID  int64
	reports []domain.Report
}

func newMemReports() *memReports {
	return &memReports{nextID: 1}
}

func (m *memReports) Create(_ context.Context, r *domain.Report, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	r.User = &domain.UserDisplay{ID: userID}
	m.reports = append(m.reports, *r)
	return nil
}

func (m *memReports) CreateBatch(ctx context.Context, reports []domain.Report, userID string) error {
	for i := range reports {
		if err := m.Create(ctx, &reports[i], userID); err != nil {
			return err
		}
	}
	return nil
}

func (m *memReports) GetByID(_ context.Context, id int64) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].ID == id {
			cpy := m.reports[i]
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memReports) List(_ context.Context, filter domain.ReportFilter) ([]domain.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]domain.ReportSummary, 0)
	for _, r := range m.reports {
		if filter.TeamNumber != nil && r.TeamNumber != *filter.TeamNumber {
			continue
		}
		matched = append(matched, domain.ReportSummary{ID: r.ID, TeamNumber: r.TeamNumber, User: r.User})
	}
	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			return []domain.ReportSummary{}, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Take > 0 && filter.Take < len(matched) {
		matched = matched[:filter.Take]
	}
	return matched, nil
}

func (m *memReports) ListAll(_ context.Context) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Report, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *memReports) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.reports)), nil
}

type stubRanker struct {
	rankings []domain.Ranking
	err      error
}

func (s *stubRanker) Rank(_ context.Context, _ []domain.Report) ([]domain.Ranking, error) {
	return s.rankings, s.err
}

// --- Test server ---

const testTeamPassword = "open-sesame"

type testServer struct {
	router http.Handler
	jwt    *auth.JWTManager
	users  *memUsers
	tokens *memTokens
	ranker *stubRanker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", 30*time.Minute)

	users := newMemUsers()
	tokens := newMemTokens()
	reports := newMemReports()
	ranker := &stubRanker{rankings: []domain.Ranking{
		{TeamNumber: 254, Score: 0.91, Confidence: 0.8, Overview: "strong shooter"},
	}}

	avatars, err := avatar.NewStore(t.TempDir())
	require.NoError(t, err)

	authSvc := service.NewAuthService(users, tokens, jwtManager, nil, testTeamPassword, logger)
	userSvc := service.NewUserService(users, tokens, avatars, nil, logger)
	reportSvc := service.NewReportService(reports, nil, logger)
	rankingSvc := service.NewRankingService(reports, ranker, nil, logger)

	router := NewRouter(RouterDeps{
		Auth:     authSvc,
		Users:    userSvc,
		Reports:  reportSvc,
		Rankings: rankingSvc,
		JWT:      jwtManager,
		Health:   health.NewHandler(),
		Logger:   logger,
		CORS:     CORSConfig{Environment: "development"},
	})

	return &testServer{router: router, jwt: jwtManager, users: users, tokens: tokens, ranker: ranker}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user and returns the token pair plus the user id
// recovered from the access token.
func (ts *testServer) signUp(t *testing.T, username string) (domain.TokenPair, string) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/auth/sign-up", "", map[string]string{
		"username":     username,
		"password":     "hunter22",
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"teamPassword": testTeamPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var pair domain.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))

	userID, err := ts.jwt.Verify(pair.AccessToken)
	require.NoError(t, err)
	return pair, userID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func validReport() map[string]any {
	return map[string]any{
		"eventCode":    "2026w",
		"matchType":    "QUALIFICATION",
		"matchNumber":  12,
		"teamNumber":   254,
		"trenchOrBump": "TRENCH",
		"notes":        "fast cycles",
		"minorFouls":   1,
		"majorFouls":   0,
		"auto":         map[string]any{"notes": "", "movement": true, "hubScore": 4, "hubMisses": 1, "level1": false},
		"teleop":       map[string]any{"notes": "", "hubScore": 12, "hubMisses": 3, "level": nil},
		"endgame":      map[string]any{"notes": "", "hubScore": 2, "hubMisses": 0, "level": "LEVEL2"},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds a profile-update body with the given text fields and
// an optional avatar file.
func multipartBody(t *testing.T, fields map[string]string, avatarPNG []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	if avatarPNG != nil {
		part, err := mw.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(avatarPNG)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

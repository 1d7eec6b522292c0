package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tlaloc-sg/tlaloc-erp/internal/app"
	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, user auth.User) (int64, error) {
	return 7, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

// newTestRouter mounts the auth routes behind the real middleware chain so
// session cookies are committed before the response body, as in production.
func newTestRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.Default()
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions, csrf)

	r := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		Config:         &app.Config{},
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Route("/auth", handler.MountRoutes)
	return r, sessions
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "admin@tlaloc.local",
		FullName:     "Admin",
		PasswordHash: string(hashed),
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}}
	router, sessions := newTestRouter(t, repo)

	body := `{"email":"admin@tlaloc.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := serve(t, router, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"csrf_token"`)
	require.Contains(t, res.Body.String(), `"role":"admin"`)

	var sessionCookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == sessions.CookieName() {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "login must set the session cookie")
	require.NotEmpty(t, sessionCookie.Value)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "user@tlaloc.local",
		PasswordHash: string(hashed),
		Role:         auth.RoleClient,
		IsActive:     true,
	}}
	router, _ := newTestRouter(t, repo)

	body := `{"email":"user@tlaloc.local","password":"wrongpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := serve(t, router, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "user@tlaloc.local",
		PasswordHash: string(hashed),
		Role:         auth.RoleClient,
		IsActive:     false,
	}}
	router, _ := newTestRouter(t, repo)

	body := `{"email":"user@tlaloc.local","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := serve(t, router, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepo{})

	body := `{"email":"not-an-email","full_name":"X","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	res := serve(t, router, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}

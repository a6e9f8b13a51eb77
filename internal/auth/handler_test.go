package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-campus/meridian-campus/internal/auth"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
	_ "github.com/meridian-campus/meridian-campus/testing"
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

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewHandler(logger, auth.NewService(repo), sessionManager, csrfManager), sessionManager
}

func mountAndServe(h *auth.Handler, w http.ResponseWriter, r *http.Request) {
	router := chi.NewRouter()
	router.Route("/auth", h.MountRoutes)
	router.ServeHTTP(w, r)
}

func TestLoginStoresRoleClaim(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "dean@meridian.edu",
		FullName:     "Dean Winchester",
		Role:         rbac.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	}}
	handler, sessionManager := newAuthHandler(t, repo)

	body := `{"email":"dean@meridian.edu","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	mountAndServe(handler, rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if sess.Role() != string(rbac.RoleAdmin) {
		t.Fatalf("expected role claim %q got %q", rbac.RoleAdmin, sess.Role())
	}
	if sess.User() != "7" {
		t.Fatalf("expected user id 7 got %q", sess.User())
	}

	var payload struct {
		Identity struct {
			Role string `json:"role"`
		} `json:"identity"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Identity.Role != string(rbac.RoleAdmin) {
		t.Fatalf("unexpected identity role %q", payload.Identity.Role)
	}
	if payload.CSRFToken == "" {
		t.Fatalf("expected csrf token in login response")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	repo := &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "dean@meridian.edu",
		Role:         rbac.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     true,
	}}
	handler, sessionManager := newAuthHandler(t, repo)

	body := `{"email":"dean@meridian.edu","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	sess, _ := sessionManager.Load(context.Background(), req)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	mountAndServe(handler, rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if sess.User() != "" {
		t.Fatalf("session must stay anonymous after failed login")
	}
}

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkravtsov/offerhub/internal/auth"
	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/repository"
	"github.com/dkravtsov/offerhub/internal/session"
)

// fakeAccounts is an in-memory AccountStore shared by the handler tests.
type fakeAccounts struct {
	byEmail map[string]model.User
	nextID  uint64
}

func (f *fakeAccounts) Create(_ context.Context, email, passwordHash string) (uint64, error) {
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	f.byEmail[email] = model.User{ID: f.nextID, Email: email, PasswordHash: passwordHash}
	return f.nextID, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeAccounts) MarkVerified(_ context.Context, id uint64) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			u.IsVerified = true
			f.byEmail[email] = u
		}
	}
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
			f.byEmail[email] = u
		}
	}
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id uint64) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			delete(f.byEmail, email)
		}
	}
	return nil
}

const (
	testEmail    = "buyer@example.com"
	testPassword = "opensesame"
	testAgent    = "test-agent"
)

func newAuthFixture(t *testing.T) (*AuthHandler, *fakeAccounts, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users := &fakeAccounts{
		byEmail: map[string]model.User{
			testEmail: {ID: 11, Email: testEmail, PasswordHash: hash},
		},
		nextID: 11,
	}
	cfg := config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	return NewAuthHandler(cfg, users, session.NewStore(rdb, cfg.RefreshTTLDays)), users, mr
}

func doLogin(t *testing.T, h *AuthHandler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	body := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", testAgent)
	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return rec
}

func doRefresh(t *testing.T, h *AuthHandler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token/refresh", nil)
	req.Header.Set("User-Agent", testAgent)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	if err := h.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == RefreshCookieName {
			return c
		}
	}
	t.Fatal("no refresh session cookie in response")
	return nil
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, mr := newAuthFixture(t)

	rec := doLogin(t, h, testEmail, "not-the-password")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if got := rec.Result().Cookies(); len(got) != 0 {
		t.Errorf("cookies set on failed login: %v", got)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("session created on failed login: %v", keys)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h, _, mr := newAuthFixture(t)

	rec := doLogin(t, h, "nobody@example.com", testPassword)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("session created for unknown email: %v", keys)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	rec := doLogin(t, h, testEmail, testPassword)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "access_token") {
		t.Errorf("body has no access token: %s", rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie.Value == "" {
		t.Error("cookie carries no session id")
	}
	if cookie.Path != authCookiePath {
		t.Errorf("cookie path = %q, want %q", cookie.Path, authCookiePath)
	}
	if !cookie.HttpOnly {
		t.Error("cookie is not httponly")
	}
	if want := 7 * 24 * 60 * 60; cookie.MaxAge != want {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, want)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	old := sessionCookie(t, doLogin(t, h, testEmail, testPassword))

	rec := doRefresh(t, h, old)
	if rec.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	fresh := sessionCookie(t, rec)
	if fresh.Value == old.Value {
		t.Error("refresh did not rotate the session id")
	}

	// The presented session is deleted before its replacement exists, so
	// the old cookie must not work twice.
	if rec := doRefresh(t, h, old); rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h, users, _ := newAuthFixture(t)

	cookie := sessionCookie(t, doLogin(t, h, testEmail, testPassword))

	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, testEmail, h.Cfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", access)
	req.Header.Set("User-Agent", testAgent)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	gate := middleware.StrictAuth(h.Cfg.JWTSecret, users)(h.Logout)
	if err := gate(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	if rec := doRefresh(t, h, cookie); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

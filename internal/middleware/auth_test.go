package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/auth"
	"github.com/dkravtsov/offerhub/internal/model"
)

const testSecret = "middleware-test-secret"

type fakeUsers struct {
	users map[string]model.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func expiredToken(t *testing.T, email string) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"sub":   auth.PurposeAccess,
		"exp":   time.Now().UTC().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func runGate(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()
	e := echo.New()
	var seen *model.User
	handler := mw(func(c echo.Context) error {
		if u, ok := CurrentUser(c); ok {
			seen = &u
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, seen
}

func TestStrictAuth(t *testing.T) {
	users := &fakeUsers{users: map[string]model.User{
		"known@example.com": {ID: 11, Email: "known@example.com"},
	}}
	valid, err := auth.NewAccessToken(testSecret, "known@example.com", 5)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	unknown, _ := auth.NewAccessToken(testSecret, "ghost@example.com", 5)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{"missing header", "", http.StatusUnauthorized, false},
		{"garbage token", "zzz.zzz.zzz", http.StatusUnauthorized, false},
		{"expired token", expiredToken(t, "known@example.com"), http.StatusUnauthorized, false},
		{"unknown principal", unknown, http.StatusUnauthorized, false},
		{"raw token", valid, http.StatusOK, true},
		{"bearer prefix", "Bearer " + valid, http.StatusOK, true},
	}

	mw := StrictAuth(testSecret, users)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := runGate(t, mw, tt.header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUser && (seen == nil || seen.ID != 11) {
				t.Errorf("principal = %+v, want user 11", seen)
			}
		})
	}
}

func TestSoftAuthCollapsesFailures(t *testing.T) {
	users := &fakeUsers{users: map[string]model.User{
		"known@example.com": {ID: 4, Email: "known@example.com"},
	}}
	valid, _ := auth.NewAccessToken(testSecret, "known@example.com", 5)

	tests := []struct {
		name     string
		header   string
		wantUser bool
	}{
		{"no header is anonymous", "", false},
		{"expired token is anonymous", expiredToken(t, "known@example.com"), false},
		{"garbage is anonymous", "nope", false},
		{"valid token resolves", valid, true},
	}

	mw := SoftAuth(testSecret, users)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := runGate(t, mw, tt.header)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200 in soft mode", rec.Code)
			}
			if got := seen != nil; got != tt.wantUser {
				t.Errorf("principal present = %v, want %v", got, tt.wantUser)
			}
		})
	}
}

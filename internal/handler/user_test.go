package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/session"
)

// fakeProfiles is an in-memory ProfileStore.
type fakeProfiles struct {
	rows      map[uint64]model.PersonalData
	createErr error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[uint64]model.PersonalData{}}
}

func (f *fakeProfiles) Create(_ context.Context, userID uint64) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[userID] = model.PersonalData{UserID: userID}
	return nil
}

func (f *fakeProfiles) Get(_ context.Context, userID uint64) (model.PersonalData, error) {
	p, ok := f.rows[userID]
	if !ok {
		return model.PersonalData{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, p model.PersonalData) error {
	f.rows[p.UserID] = p
	return nil
}

func newUserFixture(t *testing.T, profiles *fakeProfiles) (*UserHandler, *fakeAccounts) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := &fakeAccounts{byEmail: map[string]model.User{}}
	cfg := config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	return NewUserHandler(cfg, users, profiles, nil, session.NewStore(rdb, cfg.RefreshTTLDays)), users
}

func doRegister(t *testing.T, h *UserHandler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	body := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Register(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return rec
}

func TestRegisterCreatesProfileRow(t *testing.T) {
	profiles := newFakeProfiles()
	h, users := newUserFixture(t, profiles)

	rec := doRegister(t, h, "new@example.com", "longenough")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	u, err := users.GetByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if _, ok := profiles.rows[u.ID]; !ok {
		t.Errorf("no profile row for user %d", u.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	profiles := newFakeProfiles()
	h, _ := newUserFixture(t, profiles)

	if rec := doRegister(t, h, "new@example.com", "longenough"); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, want %d", rec.Code, http.StatusCreated)
	}

	rec := doRegister(t, h, "new@example.com", "longenough")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `"field_name":"email"`) {
		t.Errorf("error does not name the email field: %s", rec.Body.String())
	}
}

func TestRegisterCleansUpAfterProfileFailure(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.createErr = errors.New("insert failed")
	h, users := newUserFixture(t, profiles)

	rec := doRegister(t, h, "new@example.com", "longenough")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	// The account must not survive without its profile row.
	if _, err := users.GetByEmail(context.Background(), "new@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("half-registered account left behind (err = %v)", err)
	}
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/auth"
	"github.com/dkravtsov/offerhub/internal/config"
	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/model"
	"github.com/dkravtsov/offerhub/internal/session"
)

// RefreshCookieName is the cookie carrying the opaque refresh session
// id. The cookie never contains token claims, only the id; everything
// else about the session stays server-side.
const RefreshCookieName = "refresh_token"

// authCookiePath scopes the refresh cookie to the auth endpoints so it
// is not sent along with every API call.
const authCookiePath = "/api/v1/auth"

// UserSource resolves accounts for credential checks. UserRepo
// satisfies it; tests substitute a fake.
type UserSource interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthHandler implements login, refresh rotation and logout.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserSource
	Sessions *session.Store
}

func NewAuthHandler(cfg config.Config, users UserSource, sessions *session.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, opens a refresh session bound to the
// caller's User-Agent and returns a short-lived access token. The
// session id travels back only in the httponly cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	userAgent := c.Request().UserAgent()
	if userAgent == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "User-Agent header required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user by this email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "incorrect password"})
	}

	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	sess, err := h.Sessions.Create(ctx, u.ID, userAgent)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	h.setSessionCookie(c, sess.ID)

	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Refresh rotates the session: the presented session is validated and
// deleted before the replacement is created, so a stolen refresh cookie
// replays at most once. A failed create after the delete leaves the
// user logged out rather than leaving a stale session behind.
func (h *AuthHandler) Refresh(c echo.Context) error {
	sess, ok := sessionFromCookie(c, h.Sessions)
	if !ok {
		return nil
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke session failed"})
	}

	u, err := h.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	fresh, err := h.Sessions.Create(ctx, u.ID, c.Request().UserAgent())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	h.setSessionCookie(c, fresh.ID)

	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Logout revokes the presented session and clears the cookie. Runs
// behind strict auth.
func (h *AuthHandler) Logout(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)

	sess, ok := sessionFromCookie(c, h.Sessions)
	if !ok {
		return nil
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke session failed"})
	}
	clearSessionCookie(c)

	return c.JSON(http.StatusOK, echo.Map{"user": user.ID, "status": "logged out"})
}

// sessionFromCookie validates the refresh cookie against the registry.
// On failure the response has already been written and ok is false. All
// auth failure paths are 401: an absent cookie, an expired or unknown
// session, and a User-Agent mismatch all mean "re-authenticate".
func sessionFromCookie(c echo.Context, sessions *session.Store) (session.RefreshSession, bool) {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "no refresh session"})
		return session.RefreshSession{}, false
	}
	userAgent := c.Request().UserAgent()
	if userAgent == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "User-Agent header required"})
		return session.RefreshSession{}, false
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	sess, err := sessions.Get(ctx, cookie.Value, userAgent)
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh session has expired"})
		return session.RefreshSession{}, false
	case errors.Is(err, session.ErrAgentMismatch):
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect user agent"})
		return session.RefreshSession{}, false
	case err != nil:
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
		return session.RefreshSession{}, false
	}
	return sess, true
}

func (h *AuthHandler) setSessionCookie(c echo.Context, id string) {
	ttl := h.Sessions.TTL()
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    id,
		Path:     authCookiePath,
		HttpOnly: true,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().UTC().Add(ttl),
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     authCookiePath,
		HttpOnly: true,
		MaxAge:   -1,
	})
}

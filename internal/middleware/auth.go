package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkravtsov/offerhub/internal/auth"
	"github.com/dkravtsov/offerhub/internal/model"
)

// userContextKey is where the resolved principal lives in the echo
// context. Handlers read it through CurrentUser.
const userContextKey = "user"

// EmailUserSource resolves an access token subject to a user record.
// The repository's UserRepo satisfies it; tests substitute a fake.
type EmailUserSource interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// StrictAuth returns middleware that authenticates every request or
// fails it with 401. The Authorization header carries the raw signed
// token; an optional "Bearer " prefix is accepted and trimmed. Failure
// modes, all 401: missing header, malformed token or wrong purpose,
// expired token, or a subject email with no user record.
func StrictAuth(secret string, users EmailUserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, errMsg, status := resolveUser(c, secret, users)
			if errMsg != "" {
				return c.JSON(status, echo.Map{"error": errMsg})
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// SoftAuth runs the same resolution as StrictAuth but collapses every
// failure into "anonymous": the request proceeds with no principal in
// context. Used by endpoints with optional personalization.
func SoftAuth(secret string, users EmailUserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, errMsg, _ := resolveUser(c, secret, users)
			if errMsg == "" {
				c.Set(userContextKey, user)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated principal, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

// resolveUser performs token decoding, expiry checking and principal
// lookup. On failure it returns a non-empty message plus the HTTP
// status the strict mode should answer with.
func resolveUser(c echo.Context, secret string, users EmailUserSource) (model.User, string, int) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return model.User{}, "no access token", http.StatusUnauthorized
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	claims, err := auth.Decode(secret, raw)
	if err != nil {
		return model.User{}, "invalid access token", http.StatusUnauthorized
	}
	if claims.Purpose != auth.PurposeAccess {
		return model.User{}, "invalid access token", http.StatusUnauthorized
	}
	if claims.Expired(time.Now().UTC()) {
		return model.User{}, "access token has expired", http.StatusUnauthorized
	}

	user, err := users.GetByEmail(c.Request().Context(), claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, "unknown user", http.StatusUnauthorized
		}
		return model.User{}, "user lookup failed", http.StatusInternalServerError
	}
	return user, "", 0
}

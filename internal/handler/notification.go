package handler

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkravtsov/offerhub/internal/middleware"
	"github.com/dkravtsov/offerhub/internal/notify"
	"github.com/dkravtsov/offerhub/internal/session"
)

// NotificationHandler issues stream tokens and serves the server-sent
// event stream. The stream endpoint authenticates with a short-lived
// opaque token in the query string because EventSource clients cannot
// set an Authorization header.
type NotificationHandler struct {
	Tokens *session.NotifyTokenStore
	Bus    *notify.Bus

	// PollInterval bounds how long one ReceiveTimeout call blocks, so
	// client disconnects are noticed reasonably fast. Zero means the
	// 10-second default.
	PollInterval time.Duration
}

func NewNotificationHandler(tokens *session.NotifyTokenStore, bus *notify.Bus) *NotificationHandler {
	return &NotificationHandler{Tokens: tokens, Bus: bus}
}

// Token exchanges a valid access token for a stream token.
func (h *NotificationHandler) Token(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	token, err := h.Tokens.Issue(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Stream relays the caller's notification channel as server-sent
// events. It holds the connection open until the client goes away; each
// event is the bus payload verbatim.
func (h *NotificationHandler) Stream(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token required"})
	}

	ctx := c.Request().Context()
	userID, err := h.Tokens.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve token failed"})
	}

	sub := h.Bus.Subscribe(ctx, userID)
	defer sub.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	poll := h.PollInterval
	if poll <= 0 {
		poll = 10 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := sub.ReceiveTimeout(ctx, poll)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return nil
		}
		m, ok := msg.(*redis.Message)
		if !ok {
			// Subscribe confirmations and pongs are not events.
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", m.Payload); err != nil {
			return nil
		}
		resp.Flush()
	}
}

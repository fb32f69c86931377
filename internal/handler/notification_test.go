package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dkravtsov/offerhub/internal/notify"
	"github.com/dkravtsov/offerhub/internal/session"
)

func newStreamFixture(t *testing.T) (*NotificationHandler, *notify.Bus, *session.NotifyTokenStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := session.NewNotifyTokenStore(rdb, 120)
	bus := notify.NewBus(rdb)
	h := NewNotificationHandler(tokens, bus)
	h.PollInterval = 50 * time.Millisecond
	return h, bus, tokens
}

func TestStreamRejectsMissingToken(t *testing.T) {
	h, _, _ := newStreamFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/stream", nil)
	rec := httptest.NewRecorder()

	if err := h.Stream(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStreamRejectsUnknownToken(t *testing.T) {
	h, _, _ := newStreamFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/stream?token=nope", nil)
	rec := httptest.NewRecorder()

	if err := h.Stream(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStreamDeliversNotifications(t *testing.T) {
	h, bus, tokens := newStreamFixture(t)

	token, err := tokens.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/stream?token="+token, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan error, 1)
	go func() { done <- h.Stream(e.NewContext(req, rec)) }()

	// Give the handler time to subscribe before publishing.
	time.Sleep(100 * time.Millisecond)
	if err := bus.Publish(context.Background(), 7, notify.NewMessage(7, 42)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream() did not return after context cancel")
	}

	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "data: ") {
		t.Fatalf("body has no event frame:\n%s", body)
	}
	if !strings.Contains(body, `"event":"message"`) || !strings.Contains(body, `"chat_id":42`) {
		t.Errorf("unexpected event payload:\n%s", body)
	}
}

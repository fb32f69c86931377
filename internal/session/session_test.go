package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStoreCreateAndGet(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, 60)
	ctx := context.Background()

	sess, err := store.Create(ctx, 42, "test-agent/1.0")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create() returned empty session id")
	}

	got, err := store.Get(ctx, sess.ID, "test-agent/1.0")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != 42 {
		t.Errorf("UserID = %d, want 42", got.UserID)
	}
}

func TestStoreGetFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewStore(rdb, 60)
	ctx := context.Background()

	sess, err := store.Create(ctx, 7, "agent-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.Get(ctx, sess.ID, "agent-b"); err != ErrAgentMismatch {
		t.Errorf("Get() with wrong agent error = %v, want ErrAgentMismatch", err)
	}
	if _, err := store.Get(ctx, "no-such-session", "agent-a"); err != ErrSessionExpired {
		t.Errorf("Get() unknown id error = %v, want ErrSessionExpired", err)
	}

	// TTL elapse makes the session indistinguishable from a missing one.
	mr.FastForward(61 * 24 * time.Hour)
	if _, err := store.Get(ctx, sess.ID, "agent-a"); err != ErrSessionExpired {
		t.Errorf("Get() after TTL error = %v, want ErrSessionExpired", err)
	}
}

func TestStoreRotation(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, 60)
	ctx := context.Background()

	old, err := store.Create(ctx, 9, "agent")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Rotate-on-use: delete the old session before issuing the new one.
	if err := store.Revoke(ctx, old.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	fresh, err := store.Create(ctx, 9, "agent")
	if err != nil {
		t.Fatalf("Create() after revoke error = %v", err)
	}

	if _, err := store.Get(ctx, old.ID, "agent"); err != ErrSessionExpired {
		t.Errorf("old session still resolves after rotation, error = %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID, "agent"); err != nil {
		t.Errorf("fresh session Get() error = %v", err)
	}
}

func TestRevokeIdempotent(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewStore(rdb, 60)
	ctx := context.Background()

	if err := store.Revoke(ctx, "never-existed"); err != nil {
		t.Errorf("Revoke() of unknown id error = %v, want nil", err)
	}
}

func TestNotifyTokenStore(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewNotifyTokenStore(rdb, 120)
	ctx := context.Background()

	token, err := store.Issue(ctx, 15)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	userID, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != 15 {
		t.Errorf("Resolve() = %d, want 15", userID)
	}

	// Tokens are not single-use inside the TTL window.
	if _, err := store.Resolve(ctx, token); err != nil {
		t.Errorf("second Resolve() error = %v, want nil", err)
	}

	if _, err := store.Resolve(ctx, "bogus"); err != ErrTokenExpired {
		t.Errorf("Resolve() unknown token error = %v, want ErrTokenExpired", err)
	}

	mr.FastForward(121 * time.Second)
	if _, err := store.Resolve(ctx, token); err != ErrTokenExpired {
		t.Errorf("Resolve() after TTL error = %v, want ErrTokenExpired", err)
	}
}

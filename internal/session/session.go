// Package session implements the server-side refresh session registry
// and the short-lived notification token store, both backed by Redis
// with native key expiry. An expired record is simply an absent key, so
// callers cannot distinguish "expired" from "never existed".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "refresh_session_"

var (
	// ErrSessionExpired covers both a reaped and a never-issued session id.
	ErrSessionExpired = errors.New("refresh session has expired")
	// ErrAgentMismatch means the session exists but was created from a
	// different User-Agent.
	ErrAgentMismatch = errors.New("incorrect user agent for refresh session")
)

// RefreshSession is one authenticated device/browser. The id is the
// opaque value handed to the client in the refresh cookie; everything
// else stays server-side.
type RefreshSession struct {
	ID        string    `json:"_id"`
	UserID    uint64    `json:"user_id"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps refresh sessions in Redis under refresh_session_<id> with
// a days-scale TTL. Rotation and revocation both reduce to DEL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a session store with the given TTL in days.
func NewStore(rdb *redis.Client, ttlDays int) *Store {
	return &Store{rdb: rdb, ttl: time.Duration(ttlDays) * 24 * time.Hour}
}

// TTL exposes the configured session lifetime, used to scope the cookie.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create stores a new session under a fresh unguessable id and returns it.
func (s *Store) Create(ctx context.Context, userID uint64, userAgent string) (RefreshSession, error) {
	sess := RefreshSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return RefreshSession{}, err
	}
	if err := s.rdb.SetEx(ctx, sessionKeyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return RefreshSession{}, err
	}
	return sess, nil
}

// Get fetches a session and validates the presented User-Agent against
// the one recorded at creation. A missing key (expired or never issued)
// yields ErrSessionExpired; a User-Agent mismatch yields
// ErrAgentMismatch. Both are "must re-authenticate" signals.
func (s *Store) Get(ctx context.Context, id, userAgent string) (RefreshSession, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return RefreshSession{}, ErrSessionExpired
	}
	if err != nil {
		return RefreshSession{}, err
	}
	var sess RefreshSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return RefreshSession{}, err
	}
	if sess.UserAgent != userAgent {
		return RefreshSession{}, ErrAgentMismatch
	}
	return sess, nil
}

// Revoke deletes a session. Deleting an absent id is not an error, so
// revocation is idempotent.
func (s *Store) Revoke(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

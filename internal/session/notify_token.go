package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const notifyTokenKeyPrefix = "message_token_"

// ErrTokenExpired is returned when a notification token is absent,
// whether it expired or never existed.
var ErrTokenExpired = errors.New("notification token has expired")

// NotifyTokenStore issues short-lived opaque tokens that authorize one
// event stream subscription. The stream endpoint cannot carry an
// Authorization header (the token travels in the URL), so these tokens
// live only long enough to bridge "fetch token" and "open stream" as two
// requests. They are not invalidated on first use; the short TTL bounds
// the replay window.
type NotifyTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewNotifyTokenStore returns a token store with the given TTL in seconds.
func NewNotifyTokenStore(rdb *redis.Client, ttlSec int) *NotifyTokenStore {
	return &NotifyTokenStore{rdb: rdb, ttl: time.Duration(ttlSec) * time.Second}
}

// Issue maps a fresh opaque token to userID and returns the token.
func (s *NotifyTokenStore) Issue(ctx context.Context, userID uint64) (string, error) {
	token := uuid.NewString()
	key := notifyTokenKeyPrefix + token
	if err := s.rdb.SetEx(ctx, key, strconv.FormatUint(userID, 10), s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user id a token was issued for, or ErrTokenExpired.
func (s *NotifyTokenStore) Resolve(ctx context.Context, token string) (uint64, error) {
	raw, err := s.rdb.Get(ctx, notifyTokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrTokenExpired
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ErrTokenExpired
	}
	return userID, nil
}

// Package session keeps the per-browser-session bearer token. A session with
// no token (or no session at all) is a valid anonymous state; expiry is left
// to the API, which answers 401 when a stale token shows up.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	// Token returns the stored token, or "" when the session is absent.
	Token(ctx context.Context, sid string) (string, error)
	Save(ctx context.Context, sid, token string) error
	Delete(ctx context.Context, sid string) error
}

type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "sess:", ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Token(ctx context.Context, sid string) (string, error) {
	if sid == "" {
		return "", nil
	}
	token, err := s.rdb.Get(ctx, s.prefix+sid).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, sid, token string) error {
	return s.rdb.Set(ctx, s.prefix+sid, token, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, s.prefix+sid).Err()
}

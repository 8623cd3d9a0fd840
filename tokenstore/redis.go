package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/authclient/redis"
)

// RedisStore shares the token pair across processes. Both keys are written
// in one MULTI/EXEC transaction with the same expiration.
type RedisStore struct {
	client     *redis.Client
	accessKey  string
	refreshKey string
	ttl        time.Duration
}

// NewRedisStore creates a RedisStore on top of client. Empty key names fall
// back to the cookie names and a zero ttl to DefaultTTL.
func NewRedisStore(client *redis.Client, accessKey, refreshKey string, ttl time.Duration) *RedisStore {
	if accessKey == "" {
		accessKey = DefaultAccessKey
	}
	if refreshKey == "" {
		refreshKey = DefaultRefreshKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client:     client,
		accessKey:  client.Key(accessKey),
		refreshKey: client.Key(refreshKey),
		ttl:        ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) (TokenPair, error) {
	vals, err := s.client.MGet(ctx, s.accessKey, s.refreshKey)
	if err != nil {
		return TokenPair{}, fmt.Errorf("token store load: %w", err)
	}
	return TokenPair{AccessToken: vals[0], RefreshToken: vals[1]}, nil
}

func (s *RedisStore) Replace(ctx context.Context, pair TokenPair) error {
	err := s.client.SetAll(ctx, map[string]string{
		s.accessKey:  pair.AccessToken,
		s.refreshKey: pair.RefreshToken,
	}, s.ttl)
	if err != nil {
		return fmt.Errorf("token store replace: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.accessKey, s.refreshKey); err != nil {
		return fmt.Errorf("token store clear: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)

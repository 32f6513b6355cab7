package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session durable across portal restarts, keyed by
// profile the way localStorage is keyed by browser origin.
type RedisStore struct {
	redis   *redis.Client
	profile string
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{redis: client, profile: profile}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("portal:session:%s", s.profile)
}

// Load retrieves the stored session, or nil when signed out.
func (s *RedisStore) Load(ctx context.Context) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

// Save replaces the stored session wholesale.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

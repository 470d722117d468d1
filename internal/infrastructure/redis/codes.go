package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-api-auth/internal/config"
	"github.com/go-api-auth/internal/domain"
	"github.com/redis/go-redis/v9"
)

// putCodeLua overwrites the code for an email and reports whether a live one was replaced.
// KEYS[1] = email
// ARGV[1] = code
// ARGV[2] = ttl in milliseconds
var putCodeLua = redis.NewScript(`
local prev = redis.call('GET', KEYS[1])
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
if prev then
  return 1
end
return 0
`)

// consumeCodeLua deletes the key only while it still holds the expected code.
// KEYS[1] = email
// ARGV[1] = expected code
var consumeCodeLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// NewClient builds a go-redis client from config.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// CodeStore keeps verification codes keyed by email, relying on native key expiry.
type CodeStore struct {
	redis redis.UniversalClient
}

func NewCodeStore(client redis.UniversalClient) *CodeStore {
	return &CodeStore{redis: client}
}

func (s *CodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) (bool, error) {
	replaced, err := putCodeLua.Run(ctx, s.redis, []string{email}, code, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("put code: %w", err)
	}
	return replaced == 1, nil
}

func (s *CodeStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.redis.Get(ctx, email).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("code: %w", domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get code: %w", err)
	}
	return code, nil
}

// CompareAndDelete removes the code only if it still equals expected.
// It returns false when the key is gone or holds a different code.
func (s *CodeStore) CompareAndDelete(ctx context.Context, email, expected string) (bool, error) {
	n, err := consumeCodeLua.Run(ctx, s.redis, []string{email}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	return n == 1, nil
}

// Delete is idempotent; a missing key is not an error.
func (s *CodeStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, email).Err(); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

func (s *CodeStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

package cache

import (
    "context"
    "errors"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisStore adapts a go-redis client to the Store contract.  The Redis
// server enforces entry TTLs independently of any in-flight request, which
// is what gives session and status entries their hard expiry.
type RedisStore struct {
    rdb *redis.Client
}

// NewRedisStore wraps an already-connected client.  The client must be
// non-nil; callers that could not reach Redis should fall back to a
// MemoryStore instead.
func NewRedisStore(rdb *redis.Client) *RedisStore {
    if rdb == nil {
        panic("nil redis client passed to NewRedisStore")
    }
    return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
    bs, err := s.rdb.Get(ctx, key).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, false, nil
        }
        return nil, false, err
    }
    return bs, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
    return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
    return s.rdb.Del(ctx, key).Err()
}

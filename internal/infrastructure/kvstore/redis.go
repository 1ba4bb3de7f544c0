package kvstore

import (
	"context"
	"errors"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

var incrWithExpiryScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 and tonumber(ARGV[1]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// RedisStore implements Store on top of go-redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, crerr.Wrap(err, "parse redis url")
	}
	return redis.NewClient(opts), nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, crerr.Wrapf(err, "redis get %s", key)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return crerr.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return crerr.Wrapf(err, "redis del %s", strings.Join(keys, ","))
	}
	return nil
}

func (s *RedisStore) SetAddWithTTL(ctx context.Context, key, member string, ttl time.Duration) (bool, error) {
	var added *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, key, member)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return false, crerr.Wrapf(err, "redis sadd %s", key)
	}
	return added.Val() == 1, nil
}

func (s *RedisStore) SetReplace(ctx context.Context, key string, members []string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) == 0 {
			return nil
		}
		pipe.SAdd(ctx, key, toArgs(members)...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return crerr.Wrapf(err, "redis replace set %s", key)
	}
	return nil
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "redis smembers %s", key)
	}
	return members, nil
}

func (s *RedisStore) ListReplace(ctx context.Context, key string, values []string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, toArgs(values)...)
		}
		return nil
	})
	if err != nil {
		return crerr.Wrapf(err, "redis replace list %s", key)
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, key string) ([]string, error) {
	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, crerr.Wrapf(err, "redis lrange %s", key)
	}
	return values, nil
}

func (s *RedisStore) IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	value, err := incrWithExpiryScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, crerr.Wrapf(err, "redis incr %s", key)
	}
	return value, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return crerr.Wrap(err, "redis ping")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func toArgs(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

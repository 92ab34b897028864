package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/aiesec-vn/ogvhub/core"
)

const scanCount = 100

// RedisCache is a core.Cache shared by every API instance.
// Keys are namespaced with a prefix so that a full invalidation never touches foreign keys.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

var _ core.Cache = (*RedisCache)(nil)

// NewRedisCache connects to `conf.Cache.RedisURL` and checks the connection.
func NewRedisCache(ctx context.Context, conf *core.Config) (*RedisCache, error) {
	opts, err := redis.ParseURL(conf.Cache.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &RedisCache{rdb: rdb, prefix: "ogvhub:" + conf.Env + ":"}, nil
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "getting %q", key)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(c.rdb.Set(ctx, c.key(key), data, ttl).Err(), "setting %q", key)
}

// Invalidate deletes the given keys, or every key of this cache when none is given.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) > 0 {
		full := make([]string, 0, len(keys))
		for _, k := range keys {
			full = append(full, c.key(k))
		}
		return errors.Wrap(c.rdb.Del(ctx, full...).Err(), "deleting keys")
	}

	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", scanCount).Iterator()
	batch := make([]string, 0, scanCount)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanCount {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return errors.Wrap(err, "deleting keys")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "scanning keys")
	}
	if len(batch) > 0 {
		return errors.Wrap(c.rdb.Del(ctx, batch...).Err(), "deleting keys")
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

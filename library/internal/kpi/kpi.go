package kpi

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "kpi:"

type Config struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

// Counters keeps platform-wide counters as independent redis keys, so
// concurrent increments never overwrite each other.
type Counters struct {
	rdb redis.Cmdable
}

func NewCounters(rdb redis.Cmdable) *Counters {
	return &Counters{rdb: rdb}
}

func (c *Counters) Increment(ctx context.Context, name string) error {
	return c.rdb.Incr(ctx, keyPrefix+name).Err()
}

// Values reads the named counters; missing keys read as zero.
func (c *Counters) Values(ctx context.Context, names ...string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	if len(names) == 0 {
		return out, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = keyPrefix + n
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			out[names[i]] = 0
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "counter %s", names[i])
		}
		out[names[i]] = n
	}
	return out, nil
}

package cache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Keys owned by the refresh job.
const (
	KeyPrefix  = "tvlistings:"
	LockKey    = KeyPrefix + "refresh:lock"
	ReportsKey = KeyPrefix + "refresh:reports"
)

// Redis wraps a go-redis client with the few helpers the refresh job needs.
type Redis struct {
	client *redis.Client
}

// New parses a Redis URL (e.g. "redis://host:6379/0"). Call Ping to verify
// the connection.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return NewWithClient(redis.NewClient(opts)), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client) *Redis {
	return &Redis{client: c}
}

// Ping checks the connection to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}

// Close shuts down the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

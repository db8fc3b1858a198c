package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrLocked is returned by TryLock when another run holds the lock.
var ErrLocked = errors.New("refresh already running")

// releaseScript deletes the lock only while it still carries our token.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// Lock is a held run lock.
type Lock struct {
	r     *Redis
	key   string
	token string
}

// TryLock takes the lock at key for ttl using SET NX. owner is stored as the
// token (a run id), so only the holder can release it.
func TryLock(ctx context.Context, r *Redis, key string, owner uuid.UUID, ttl time.Duration) (*Lock, error) {
	token := owner.String()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "cache lock %s", key)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{r: r, key: key, token: token}, nil
}

// Holder returns the token of whoever holds key, or "" when it is free.
func Holder(ctx context.Context, r *Redis, key string) string {
	v, _ := r.client.Get(ctx, key).Result()
	return v
}

// Release frees the lock. It uses its own context so a cancelled run still
// releases.
func (l *Lock) Release() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrapf(l.r.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Err(), "cache unlock %s", l.key)
}

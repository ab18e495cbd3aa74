package mutex

import (
	"context"
	"github.com/go-redis/redis"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"time"
)

const defaultLockExpiration = time.Second * 30

// Redis is a Locker backed by redsync, shared by every instance that talks
// to the same redis.
type Redis struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedis(address string, expiry time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{Addr: address})
	pool := goredis.NewPool(client)
	rs := redsync.New(pool)
	if expiry <= 0 {
		expiry = defaultLockExpiration
	}
	return &Redis{rs: rs, expiry: expiry}
}

func (c *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	mutex := c.rs.NewMutex(key, redsync.WithExpiry(c.expiry))
	err := mutex.LockContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to lock %v", key)
	}
	return func() {
		ok, err := mutex.Unlock()
		if err != nil || !ok {
			log.Warn().Err(err).Str("key", key).Msg("Unable to release lock")
		}
	}, nil
}

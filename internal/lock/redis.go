package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"rentalshop-backend/internal/logger"
)

// unlockScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is never released by us.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// Client is the subset of the go-redis client the lock needs.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Redis is a Locker shared by every server instance that talks to the same
// redis. A lock expires after TTL even if its holder dies.
type Redis struct {
	client Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedis(client Client, ttl, wait time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, wait: wait}
}

// NewRedisClient connects to a single redis node and checks it answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Lock(ctx context.Context, shopID int32) (func(), error) {
	key := Key(shopID)
	token := uuid.NewString()

	backoff := retry.WithMaxDuration(r.wait, retry.WithCappedDuration(200*time.Millisecond, retry.NewExponential(10*time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		logger.ExternalServiceResult(ctx, "redis", "lock", err, "key", key)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done by the time it unlocks.
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := r.client.Eval(ctx, unlockScript, []string{key}, token).Err(); err != nil {
				logger.ExternalServiceResult(ctx, "redis", "unlock", err, "key", key)
			}
		})
	}, nil
}

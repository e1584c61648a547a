package repository

import (
	"context"
	"fmt"
	"time"

	"ticker-digest/pkg/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseLockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// NewRedisRunLockRepository creates a run lock held as a redis key with an expiry.
func NewRedisRunLockRepository(client redis.Cmdable, ttl time.Duration) RunLockRepository {
	return &redisRunLockRepository{client: client, ttl: ttl}
}

type redisRunLockRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Acquire sets the lock key if absent. The returned release only deletes the key while this holder still owns it.
func (r *redisRunLockRepository) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, common.RedisKeyRunLock, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := r.client.Eval(ctx, releaseLockScript, []string{common.RedisKeyRunLock}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		return nil
	}
	return release, nil
}

// NewNoopRunLockRepository creates a lock that always succeeds, for single-process deployments.
func NewNoopRunLockRepository() RunLockRepository {
	return noopRunLockRepository{}
}

type noopRunLockRepository struct{}

func (noopRunLockRepository) Acquire(context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

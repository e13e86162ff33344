package redis

import (
	"context"
	"fmt"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:dispatch:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock re-acquired by another pass is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type dispatchLock struct {
	client *redis.Client
}

// NewDispatchLock returns a lock shared by every scheduler process using the same Redis.
func NewDispatchLock(client *redis.Client) domain.DispatchLock {
	return &dispatchLock{client: client}
}

func (l *dispatchLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l.client == nil {
		return nil, false, domain.ErrQueueUnavailable
	}

	name := lockPrefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// release must run even when the pass was cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{name}, token).Err(); err != nil {
			logger.Log.Warn("Failed to release dispatch lock", "key", name, "error", err)
		}
	}
	return release, true, nil
}

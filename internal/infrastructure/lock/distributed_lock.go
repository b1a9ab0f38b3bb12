package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLockFailed = errors.New("no se pudo adquirir el bloqueo distribuido")

// DistributedLock is a SET NX EX lock. The value identifies the holder so an
// expired holder cannot release someone else's lock.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock retries TryLock up to maxRetries times, waiting retryInterval between
// attempts.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock only when this instance still holds it. The
// check-and-delete must be atomic, hence the Lua script.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewInventoryLock serializes every ledger mutation for one
// (platform, business) stock key. Different keys proceed concurrently;
// operations on the same key queue up, which is exactly what the
// read-then-recompute moving average requires.
func NewInventoryLock(client *redis.Client, platformID, businessID int64, holder string) *DistributedLock {
	key := fmt.Sprintf("inventory:lock:%d:%d", platformID, businessID)
	return NewDistributedLock(client, key, holder, 30*time.Second)
}

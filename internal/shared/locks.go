package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QuoteLockKey builds redis keys guarding quotation mutations of one quote.
func QuoteLockKey(quoteID string) string {
	return fmt.Sprintf("quotedesk:quote:%s:lock", quoteID)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive locks stored in Redis.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewLocker constructs a Locker whose locks expire after ttl.
func NewLocker(client redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock for key or returns ErrLockHeld. The returned func
// releases it only if this caller still owns it.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("shared: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

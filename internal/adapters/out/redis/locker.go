package redis

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

var _ ports.Locker = (*Locker)(nil)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out SET NX leases. A lease is released only by the Locker that took it.
type Locker struct {
	client redis.UniversalClient
	owner  string
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client, owner: uuid.NewString()}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockPrefix+key, l.owner, ttl).Result()
}

func (l *Locker) Unlock(ctx context.Context, key string) error {
	return unlockScript.Run(ctx, l.client, []string{lockPrefix + key}, l.owner).Err()
}

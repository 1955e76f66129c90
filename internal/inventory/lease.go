package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a Redis-backed sweep guard: with multiple engine instances
// running, only the holder of the lease performs a background sweep. Losing
// the lease is harmless because every seat transition is independently
// version-guarded; the lease just avoids redundant scans.
type Lease struct {
	redis    redis.UniversalClient
	ttl      time.Duration
	instance string
}

func NewLease(client redis.UniversalClient, ttl time.Duration) *Lease {
	return &Lease{
		redis:    client,
		ttl:      ttl,
		instance: uuid.New().String(),
	}
}

// TryAcquire attempts to take the named lease. Without a Redis client the
// engine runs single-instance and every sweep proceeds.
func (l *Lease) TryAcquire(ctx context.Context, name string) (bool, error) {
	if l == nil || l.redis == nil {
		return true, nil
	}

	return l.redis.SetNX(ctx, leaseKey(name), l.instance, l.ttl).Result()
}

// Release gives the lease up early. Only the holder's value is deleted, so a
// lease that already expired and was re-acquired elsewhere is left alone.
func (l *Lease) Release(ctx context.Context, name string) {
	if l == nil || l.redis == nil {
		return
	}

	releaseScript.Run(ctx, l.redis, []string{leaseKey(name)}, l.instance)
}

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func leaseKey(name string) string {
	return fmt.Sprintf("lease:%s", name)
}

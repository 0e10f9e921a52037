package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyGuard deduplicates webhook deliveries across process
// restarts using redis SET NX. The reconciliation engine already drops
// duplicate observations; the guard just avoids burning a Hub round trip
// on a redelivered webhook.
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyGuard creates a guard whose claims expire after ttl.
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{client: client, ttl: ttl}
}

// Claim attempts to claim the delivery key. It returns true when this is
// the first claim within the TTL window. Redis being unavailable fails
// open: the delivery proceeds and downstream dedup takes over.
func (g *IdempotencyGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, "webhook:seen:"+key, 1, g.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("idempotency claim %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim so a failed delivery can be retried immediately.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, "webhook:seen:"+key).Err(); err != nil {
		return fmt.Errorf("idempotency release %s: %w", key, err)
	}
	return nil
}

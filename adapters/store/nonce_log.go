package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/ports"
)

// RedisNonceLog is a Redis implementation of the NonceLog interface.
// Each issued nonce is written with its own TTL so the log holds only
// still-fresh nonces. Nothing reads it on the login path: nonces stay
// bearer proofs of freshness, not server-tracked single-use tokens.
type RedisNonceLog struct {
	client *redis.Client
	prefix string
}

// NewRedisNonceLog creates a new Redis nonce log.
func NewRedisNonceLog(client *redis.Client) *RedisNonceLog {
	return &RedisNonceLog{
		client: client,
		prefix: "gatehouse:nonce:",
	}
}

var _ ports.NonceLog = (*RedisNonceLog)(nil)

// Record writes the nonce with an expiry matching its own.
func (l *RedisNonceLog) Record(ctx context.Context, nonce core.Nonce) error {
	key := l.prefix + nonce.Value

	ttl := time.Until(nonce.ExpiresAt)
	if ttl <= 0 {
		return core.ErrNonceExpired
	}

	if err := l.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to record nonce: %w", err)
	}

	return nil
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records token ids that must be refused before their natural expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// DefaultRevocationTimeout bounds each revocation lookup or write.
const DefaultRevocationTimeout = 250 * time.Millisecond

// RedisRevocationList keeps revoked ids as expiring Redis keys.
type RedisRevocationList struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisRevocationList builds the list on top of an existing client. A
// non-positive timeout falls back to DefaultRevocationTimeout.
func NewRedisRevocationList(client *redis.Client, timeout time.Duration) *RedisRevocationList {
	if timeout <= 0 {
		timeout = DefaultRevocationTimeout
	}
	return &RedisRevocationList{client: client, prefix: "authority:revoked:", timeout: timeout}
}

func (r *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := r.client.Get(ctx, r.prefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

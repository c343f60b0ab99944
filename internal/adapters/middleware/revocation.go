package middleware

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// revokedTokenKeyPrefix namespaces revocation marks in the shared Redis.
const revokedTokenKeyPrefix = "revoked_tokens:"

// RedisRevocations checks token revocation marks kept in Redis by the
// identity provider. Marks expire with the token, so the set stays small.
type RedisRevocations struct {
	client *redis.Client
}

var _ TokenRevocations = (*RedisRevocations)(nil)

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return n > 0, nil
}

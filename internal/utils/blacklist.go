package utils

import (
	"context" // Context for Redis operations
	"time"    // Remaining lifetime

	"github.com/redis/go-redis/v9" // Redis client
)

const blacklistPrefix = "jwt:blacklist:"

// BlacklistToken stores the token id until the token would have expired anyway
func BlacklistToken(ctx context.Context, rdb *redis.Client, claims *Claims) error {
	ttl := time.Minute // Fallback when the expiry is missing or already passed
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return rdb.Set(ctx, blacklistPrefix+claims.ID, claims.UserID, ttl).Err()
}

// IsBlacklisted reports whether a token id was blacklisted
func IsBlacklisted(ctx context.Context, rdb *redis.Client, jti string) (bool, error) {
	n, err := rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

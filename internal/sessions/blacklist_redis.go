package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:access:"

// Revoked access tokens are held in Redis until their natural expiry; the
// auth middleware consults this before accepting a signature. Without a
// configured client the blacklist degrades to a no-op and logout relies on
// the short access-token TTL alone.
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for revocation
// checks. Passing nil disables the blacklist.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// BlacklistAccessToken marks a token revoked for ttl (the token's remaining
// lifetime). No-op without a client.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	return blacklistClient.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether the token was revoked. Without a
// client it always reports false.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	n, err := blacklistClient.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

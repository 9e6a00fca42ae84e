package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist denylists access-token jtis in Redis until their natural
// expiry. Access tokens are otherwise stateless; only logged-out tokens
// are recorded here, each key living exactly as long as the token would.
type Blacklist struct {
	rdb    *redis.Client
	prefix string
}

// NewBlacklist returns a denylist backed by rdb. A nil client yields a
// disabled denylist: no blacklist is maintained, so IsRevoked reports
// false and tokens simply age out within the access TTL.
func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb, prefix: "denylist:jti:"}
}

// Enabled reports whether a denylist is maintained at all.
func (b *Blacklist) Enabled() bool { return b != nil && b.rdb != nil }

// Revoke records a jti until exp. A zero or past exp is skipped since the
// token is already dead.
func (b *Blacklist) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if !b.Enabled() || jti == "" {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, b.prefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether a jti has been denylisted. When the lookup
// itself fails the result is (true, err): a revocation status we cannot
// determine is treated as revoked, never as valid.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !b.Enabled() || jti == "" {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, b.prefix+jti).Result()
	if err != nil {
		return true, err
	}
	return n > 0, nil
}

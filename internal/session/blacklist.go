// internal/session/blacklist.go
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist is a fast revocation check in front of the store: on logout or
// administrative revocation the session id is marked in redis for the
// lifetime of the longest-lived access token still in flight, so a
// still-valid access token dies immediately instead of at expiry.
// A nil redis client disables the layer; the durable store stays
// authoritative either way.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

func (b *Blacklist) key(sessionID string) string { return "portal:revoked:" + sessionID }

func (b *Blacklist) Mark(ctx context.Context, sessionID string, ttl time.Duration) error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Set(ctx, b.key(sessionID), "1", ttl).Err()
}

func (b *Blacklist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if b == nil || b.rdb == nil {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, b.key(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

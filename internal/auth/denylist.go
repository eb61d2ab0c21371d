// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist holds access token ids that were logged out before they
// expired.
type Denylist interface {
	Deny(ctx context.Context, tokenID string, until time.Time) error
	Denied(ctx context.Context, tokenID string) (bool, error)
}

type RedisDenylist struct {
	client *redis.Client
	prefix string
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: "denylist:"}
}

func (d *RedisDenylist) Deny(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 || tokenID == "" {
		return nil
	}

	if err := d.client.Set(ctx, d.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}

	return nil
}

func (d *RedisDenylist) Denied(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	n, err := d.client.Exists(ctx, d.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}

	return n > 0, nil
}

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

const (
	keyPrefix  = "bid:"
	defaultTTL = 60 * time.Second
)

// RedisBidCache implements bids.BidCache on Redis. A short TTL keeps the
// cache from serving transitions that happened on another instance; every
// error degrades to a miss.
type RedisBidCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisBidCache creates a bid cache with the default TTL.
func NewRedisBidCache(client *redis.Client, logger *slog.Logger) *RedisBidCache {
	return &RedisBidCache{client: client, ttl: defaultTTL, logger: logger}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get returns the cached bid, or a miss.
func (c *RedisBidCache) Get(ctx context.Context, id uuid.UUID) (*bids.Bid, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("bid cache read failed", "bid_id", id, "error", err)
		}
		return nil, false
	}

	var bid bids.Bid
	if err := json.Unmarshal(raw, &bid); err != nil {
		c.logger.Warn("bid cache holds a malformed entry", "bid_id", id, "error", err)
		return nil, false
	}
	return &bid, true
}

// Set stores the bid for the cache TTL.
func (c *RedisBidCache) Set(ctx context.Context, bid *bids.Bid) {
	raw, err := json.Marshal(bid)
	if err != nil {
		c.logger.Warn("failed to marshal bid for cache", "bid_id", bid.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(bid.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("bid cache write failed", "bid_id", bid.ID, "error", err)
	}
}

// Delete evicts the bid.
func (c *RedisBidCache) Delete(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("bid cache delete failed", "bid_id", id, "error", err)
	}
}

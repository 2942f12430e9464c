package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/gigflow/gigflow/services/bid-service/internal/adapters/cache"
	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

func TestRedisBidCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	defer func() {
		if termErr := redisContainer.Terminate(ctx); termErr != nil {
			t.Fatalf("failed to terminate container: %s", termErr)
		}
	}()

	connStr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(connStr)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bidCache := cache.NewRedisBidCache(client, logger)

	now := time.Now().UTC().Truncate(time.Millisecond)
	bid := &bids.Bid{
		ID:            uuid.New(),
		ProjectID:     uuid.New(),
		FreelancerID:  uuid.New(),
		Amount:        50000,
		DeliveryTime:  5,
		DeliveryUnit:  bids.UnitDays,
		Proposal:      "cache round trip proposal text",
		Status:        bids.StatusPending,
		IsActive:      true,
		Attachments:   []bids.Attachment{},
		CounterOffers: []bids.CounterOffer{},
		Milestones:    []bids.Milestone{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	t.Run("miss before set", func(t *testing.T) {
		_, ok := bidCache.Get(ctx, bid.ID)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		bidCache.Set(ctx, bid)

		got, ok := bidCache.Get(ctx, bid.ID)
		require.True(t, ok)
		assert.Equal(t, bid.ID, got.ID)
		assert.Equal(t, bid.Amount, got.Amount)
		assert.Equal(t, bids.StatusPending, got.Status)
	})

	t.Run("delete evicts", func(t *testing.T) {
		bidCache.Set(ctx, bid)
		bidCache.Delete(ctx, bid.ID)

		_, ok := bidCache.Get(ctx, bid.ID)
		assert.False(t, ok)
	})
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"waitlist-system/models"
)

// MetricsCache keeps the last computed wait-metrics snapshot per tenant in
// Redis for a few seconds so clients can poll the metrics endpoint freely.
// Every operation is best effort: the snapshot is always recomputable from
// the entry store, so cache errors degrade to a recompute, never to a failure.
type MetricsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewMetricsCache(redisClient *redis.Client, ttl time.Duration) *MetricsCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &MetricsCache{redis: redisClient, ttl: ttl}
}

func metricsKey(tenantID string) string {
	return fmt.Sprintf("waitlist:metrics:%s", tenantID)
}

func (c *MetricsCache) Get(ctx context.Context, tenantID string) (*models.WaitMetrics, bool) {
	data, err := c.redis.Get(ctx, metricsKey(tenantID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("metrics cache read failed", "tenant_id", tenantID, "error", err)
		return nil, false
	}

	var snapshot models.WaitMetrics
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		slog.Warn("metrics cache entry corrupt", "tenant_id", tenantID, "error", err)
		return nil, false
	}
	return &snapshot, true
}

func (c *MetricsCache) Put(ctx context.Context, tenantID string, snapshot models.WaitMetrics) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, metricsKey(tenantID), string(data), c.ttl).Err(); err != nil {
		slog.Warn("metrics cache write failed", "tenant_id", tenantID, "error", err)
	}
}

// Invalidate drops the cached snapshot, used after a seating adds a fresh
// sample the next read should see immediately.
func (c *MetricsCache) Invalidate(ctx context.Context, tenantID string) {
	if err := c.redis.Del(ctx, metricsKey(tenantID)).Err(); err != nil {
		slog.Warn("metrics cache invalidate failed", "tenant_id", tenantID, "error", err)
	}
}

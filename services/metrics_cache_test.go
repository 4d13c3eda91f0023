package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-system/models"
)

func TestMetricsCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 5*time.Second)

	mock.ExpectGet("waitlist:metrics:resto-1").RedisNil()

	snapshot, ok := cache.Get(context.Background(), "resto-1")
	assert.False(t, ok)
	assert.Nil(t, snapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCache_PutThenGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 5*time.Second)

	avg := 840.0
	snapshot := models.WaitMetrics{
		AvgWaitSeconds: &avg,
		SampleCount:    7,
		WindowMinutes:  120,
		LastUpdated:    time.Unix(1700000000, 0).UTC(),
	}
	payload, err := json.Marshal(snapshot)
	require.NoError(t, err)

	mock.ExpectSet("waitlist:metrics:resto-1", string(payload), 5*time.Second).SetVal("OK")
	cache.Put(context.Background(), "resto-1", snapshot)

	mock.ExpectGet("waitlist:metrics:resto-1").SetVal(string(payload))
	cached, ok := cache.Get(context.Background(), "resto-1")
	require.True(t, ok)
	require.NotNil(t, cached.AvgWaitSeconds)
	assert.Equal(t, 840.0, *cached.AvgWaitSeconds)
	assert.Equal(t, 7, cached.SampleCount)
	assert.False(t, cached.FallbackUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCache_GetCorruptEntryIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 5*time.Second)

	mock.ExpectGet("waitlist:metrics:resto-1").SetVal("{not json")

	snapshot, ok := cache.Get(context.Background(), "resto-1")
	assert.False(t, ok)
	assert.Nil(t, snapshot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCache_GetErrorIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 5*time.Second)

	mock.ExpectGet("waitlist:metrics:resto-1").SetErr(errors.New("connection reset"))

	_, ok := cache.Get(context.Background(), "resto-1")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCache_Invalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 5*time.Second)

	mock.ExpectDel("waitlist:metrics:resto-1").SetVal(1)
	cache.Invalidate(context.Background(), "resto-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsCache_DefaultTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewMetricsCache(client, 0)

	payload, err := json.Marshal(models.WaitMetrics{WindowMinutes: 90, LastUpdated: time.Unix(1700000000, 0).UTC()})
	require.NoError(t, err)

	mock.ExpectSet("waitlist:metrics:resto-2", string(payload), 5*time.Second).SetVal("OK")
	cache.Put(context.Background(), "resto-2", models.WaitMetrics{WindowMinutes: 90, LastUpdated: time.Unix(1700000000, 0).UTC()})
	assert.NoError(t, mock.ExpectationsWereMet())
}

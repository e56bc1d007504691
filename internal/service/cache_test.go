package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omerorhan/currency-service/internal/storage"
)

func TestRateCache_WriteThenRead(t *testing.T) {
	clock := newTestClock()
	store := storage.NewMemoryStore(storage.WithMemoryClock(clock.Now))
	cache := NewRateCache(store, "", 0, nil)
	cache.now = clock.Now

	_, ok := cache.Read(context.Background())
	assert.False(t, ok)

	table := storage.NewRateTable("USD", map[string]float64{"EUR": 0.9})
	require.True(t, cache.Write(context.Background(), table))

	entry, ok := cache.Read(context.Background())
	require.True(t, ok)
	assert.Equal(t, table.Rates(), entry.Table.Rates())
	assert.True(t, clock.Now().Equal(entry.CapturedAt), "captured at %v", entry.CapturedAt)
	assert.Equal(t, storage.RatesCacheKey, cache.Key())
	assert.Equal(t, time.Hour, cache.Window())
}

func TestRateCache_CapturedAtFromPayload(t *testing.T) {
	fetchedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	updatedAt := fetchedAt.Add(48 * time.Hour)
	table := storage.NewRateTable("USD", map[string]float64{"EUR": 0.9})
	stamped, err := storage.EncodeRateTable(table, fetchedAt)
	require.NoError(t, err)

	ms := new(mockStore)
	ms.On("GetSetting", mock.Anything, storage.RatesCacheKey).
		Return(&storage.Setting{Key: storage.RatesCacheKey, Value: stamped, UpdatedAt: updatedAt}, nil).Once()
	ms.On("GetSetting", mock.Anything, storage.RatesCacheKey).
		Return(&storage.Setting{Key: storage.RatesCacheKey, Value: []byte(`{"base":"USD","rates":{"EUR":0.9}}`), UpdatedAt: updatedAt}, nil).Once()

	cache := NewRateCache(ms, "", 0, nil)

	entry, ok := cache.Read(context.Background())
	require.True(t, ok)
	assert.True(t, entry.CapturedAt.Equal(fetchedAt), "payload stamp wins, got %v", entry.CapturedAt)

	entry, ok = cache.Read(context.Background())
	require.True(t, ok)
	assert.True(t, entry.CapturedAt.Equal(updatedAt), "row stamp without a payload stamp, got %v", entry.CapturedAt)

	ms.AssertExpectations(t)
}

func TestRateCache_IsFresh(t *testing.T) {
	cache := NewRateCache(storage.NewMemoryStore(), "", time.Hour, nil)
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := &storage.CacheEntry{CapturedAt: t0}

	assert.True(t, cache.IsFresh(entry, t0))
	assert.True(t, cache.IsFresh(entry, t0.Add(10*time.Minute)))
	assert.True(t, cache.IsFresh(entry, t0.Add(time.Hour-time.Nanosecond)))
	assert.False(t, cache.IsFresh(entry, t0.Add(time.Hour)))
	assert.False(t, cache.IsFresh(entry, t0.Add(3*time.Hour)))
	assert.False(t, cache.IsFresh(nil, t0))
}

func TestRateCache_ReadFailuresAreEmpty(t *testing.T) {
	ms := new(mockStore)
	ms.On("GetSetting", mock.Anything, storage.RatesCacheKey).
		Return(nil, errors.New("connection refused")).Once()
	ms.On("GetSetting", mock.Anything, storage.RatesCacheKey).
		Return(&storage.Setting{Key: storage.RatesCacheKey, Value: []byte("{broken")}, nil).Once()

	cache := NewRateCache(ms, "", 0, nil)

	_, ok := cache.Read(context.Background())
	assert.False(t, ok, "store failure reads as empty")

	_, ok = cache.Read(context.Background())
	assert.False(t, ok, "undecodable payload reads as empty")

	ms.AssertExpectations(t)
}

func TestRateCache_WriteFailureIsReported(t *testing.T) {
	ms := new(mockStore)
	ms.On("UpsertSetting", mock.Anything, storage.RatesCacheKey, mock.Anything).
		Return(errors.New("read-only replica"))

	cache := NewRateCache(ms, "", 0, nil)
	ok := cache.Write(context.Background(), storage.NewRateTable("USD", map[string]float64{"EUR": 0.9}))
	assert.False(t, ok)
	ms.AssertExpectations(t)
}

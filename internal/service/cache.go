package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omerorhan/currency-service/internal/metrics"
	"github.com/omerorhan/currency-service/internal/storage"
)

const DefaultFreshnessWindow = time.Hour

// RateCache keeps the most recent live table in a single settings row.
type RateCache struct {
	store  storage.Store
	key    string
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewRateCache wraps store. Empty key and non-positive window fall back to defaults.
func NewRateCache(store storage.Store, key string, window time.Duration, logger *zap.Logger) *RateCache {
	if key == "" {
		key = storage.RatesCacheKey
	}
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCache{store: store, key: key, window: window, logger: logger, now: time.Now}
}

func (c *RateCache) Key() string { return c.key }

func (c *RateCache) Window() time.Duration { return c.window }

// Read returns the stored entry, aged from the fetchedAt stamp of the payload
// and from the row's UpdatedAt when that is missing. Absence, store failures and undecodable
// payloads all read as "no entry".
func (c *RateCache) Read(ctx context.Context) (*storage.CacheEntry, bool) {
	s, err := c.store.GetSetting(ctx, c.key)
	if err != nil {
		c.logger.Error("❌ failed to read rate cache",
			zap.String("key", c.key), zap.Error(fmt.Errorf("%w: %v", ErrCacheUnavailable, err)))
		metrics.CacheErrorsTotal.WithLabelValues("read").Inc()
		return nil, false
	}
	if s == nil {
		return nil, false
	}
	table, fetchedAt, err := storage.DecodeRateTable(s.Value)
	if err != nil {
		c.logger.Error("❌ cached rate table is unreadable", zap.String("key", c.key), zap.Error(err))
		metrics.CacheErrorsTotal.WithLabelValues("decode").Inc()
		return nil, false
	}
	capturedAt := fetchedAt
	if capturedAt.IsZero() {
		capturedAt = s.UpdatedAt
	}
	return &storage.CacheEntry{Table: table, CapturedAt: capturedAt}, true
}

// Write overwrites the stored entry. Failures are logged and reported as false.
func (c *RateCache) Write(ctx context.Context, table storage.RateTable) bool {
	payload, err := storage.EncodeRateTable(table, c.now())
	if err != nil {
		c.logger.Error("❌ failed to encode rate table", zap.Error(err))
		metrics.CacheErrorsTotal.WithLabelValues("write").Inc()
		return false
	}
	if err := c.store.UpsertSetting(ctx, c.key, payload); err != nil {
		c.logger.Error("❌ failed to write rate cache",
			zap.String("key", c.key), zap.Error(fmt.Errorf("%w: %v", ErrCacheUnavailable, err)))
		metrics.CacheErrorsTotal.WithLabelValues("write").Inc()
		return false
	}
	return true
}

// IsFresh reports whether entry is younger than the freshness window at now.
func (c *RateCache) IsFresh(entry *storage.CacheEntry, now time.Time) bool {
	if entry == nil {
		return false
	}
	return entry.Age(now) < c.window
}

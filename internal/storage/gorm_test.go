package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	st, err := NewGormStore("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestGormStore_GetMissing(t *testing.T) {
	st := newSQLiteStore(t)

	s, err := st.GetSetting(context.Background(), RatesCacheKey)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestGormStore_Upsert(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return t0 }

	require.NoError(t, st.UpsertSetting(ctx, RatesCacheKey, []byte(`{"v":1}`)))

	st.now = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, st.UpsertSetting(ctx, RatesCacheKey, []byte(`{"v":2}`)))

	s, err := st.GetSetting(ctx, RatesCacheKey)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, `{"v":2}`, string(s.Value))
	assert.True(t, s.UpdatedAt.Equal(t0.Add(time.Hour)), "updated_at should follow the latest write, got %v", s.UpdatedAt)

	var count int64
	require.NoError(t, st.db.Model(&settingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "exactly one row per key")
}

func TestNewGormStore_UnsupportedDriver(t *testing.T) {
	_, err := NewGormStore("oracle", "")
	assert.Error(t, err)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	st, err = Open(ctx, Config{Driver: "sqlite", DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(ctx, Config{Driver: "etcd"}, nil)
	assert.Error(t, err)
}

func TestOpen_UsesClock(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return t0 }

	for _, cfg := range []Config{
		{Driver: "memory", Clock: clock},
		{Driver: "sqlite", DSN: "file::memory:", Clock: clock},
	} {
		st, err := Open(ctx, cfg, nil)
		require.NoError(t, err, cfg.Driver)
		require.NoError(t, st.UpsertSetting(ctx, RatesCacheKey, []byte(`{}`)), cfg.Driver)

		s, err := st.GetSetting(ctx, RatesCacheKey)
		require.NoError(t, err, cfg.Driver)
		require.NotNil(t, s, cfg.Driver)
		assert.True(t, s.UpdatedAt.Equal(t0), "%s: updated_at %v", cfg.Driver, s.UpdatedAt)
		require.NoError(t, st.Close())
	}
}

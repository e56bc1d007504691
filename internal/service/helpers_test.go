package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omerorhan/currency-service/internal/storage"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubSource returns a fixed table or error and counts calls.
type stubSource struct {
	mu    sync.Mutex
	table storage.RateTable
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context, _ string) (storage.RateTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return storage.RateTable{}, s.err
	}
	return s.table, nil
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubSource) Set(table storage.RateTable, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.err = table, err
}

// mockStore is a testify mock of storage.Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetSetting(ctx context.Context, key string) (*storage.Setting, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).(*storage.Setting)
	return s, args.Error(1)
}

func (m *mockStore) UpsertSetting(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Close() error { return nil }

func newTestService(t *testing.T, src RateSource, store storage.Store, clock *testClock, opts ...ServiceOption) *CurrencyService {
	t.Helper()
	base := []ServiceOption{
		WithStore(store),
		WithRateSource(src),
		WithClock(clock.Now),
		WithLogging(false),
	}
	svc, err := NewCurrencyService(append(base, opts...)...)
	require.NoError(t, err)
	require.NoError(t, svc.Initialize())
	t.Cleanup(svc.Stop)
	return svc
}

// seedCache writes table into store as if it had been captured at clock's current time.
func seedCache(t *testing.T, store storage.Store, table storage.RateTable, capturedAt time.Time) {
	t.Helper()
	payload, err := storage.EncodeRateTable(table, capturedAt)
	require.NoError(t, err)
	require.NoError(t, store.UpsertSetting(context.Background(), storage.RatesCacheKey, payload))
}

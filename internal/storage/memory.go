package storage

import (
	"context"
	"sync"
	"time"
)

type lockEntry struct {
	owner     string
	expiresAt time.Time
}

// MemoryStore implements Store and Locker in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]Setting
	locks    map[string]lockEntry
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock replaces the clock used to stamp UpdatedAt and expire locks.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory settings store
func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		settings: make(map[string]Setting),
		locks:    make(map[string]lockEntry),
		now:      time.Now,
	}
	for _, option := range options {
		option(ms)
	}
	return ms
}

func (ms *MemoryStore) GetSetting(_ context.Context, key string) (*Setting, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s, ok := ms.settings[key]
	if !ok {
		return nil, nil
	}
	s.Value = append([]byte(nil), s.Value...)
	return &s, nil
}

func (ms *MemoryStore) UpsertSetting(_ context.Context, key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.settings[key] = Setting{
		Key:       key,
		Value:     append([]byte(nil), value...),
		UpdatedAt: ms.now().UTC(),
	}
	return nil
}

func (ms *MemoryStore) AcquireLock(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	if cur, ok := ms.locks[key]; ok && now.Before(cur.expiresAt) {
		return cur.owner == owner, nil
	}
	ms.locks[key] = lockEntry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (ms *MemoryStore) RenewLock(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	cur, ok := ms.locks[key]
	if !ok || cur.owner != owner || !now.Before(cur.expiresAt) {
		return false, nil
	}
	ms.locks[key] = lockEntry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (ms *MemoryStore) ReleaseLock(_ context.Context, key, owner string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if cur, ok := ms.locks[key]; ok && cur.owner == owner {
		delete(ms.locks, key)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (ms *MemoryStore) Close() error { return nil }

var (
	_ Store  = (*MemoryStore)(nil)
	_ Locker = (*MemoryStore)(nil)
)

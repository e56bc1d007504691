package storage

import (
	"context"
	"time"
)

// Store is a key/value settings store. It backs the exchange rate cache.
type Store interface {
	// GetSetting returns nil, nil when the key does not exist.
	GetSetting(ctx context.Context, key string) (*Setting, error)
	// UpsertSetting overwrites the value and stamps UpdatedAt with the store clock.
	UpsertSetting(ctx context.Context, key string, value []byte) error
	Close() error
}

// Locker is implemented by stores that can hand out a short-lived named lock
// shared by every process using the same backend.
type Locker interface {
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	RenewLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

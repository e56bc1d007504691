package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver    string
	DSN       string
	KeyPrefix string
	// Clock stamps UpdatedAt and expires locks. Nil means time.Now.
	Clock func() time.Time
}

// Open constructs a Store based on the given configuration.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		log.Info("storage: using in-memory backend")
		return NewMemoryStore(WithMemoryClock(cfg.Clock)), nil

	case "redis":
		log.Info("storage: using redis backend", zap.String("prefix", cfg.KeyPrefix))
		return NewRedisStore(ctx, cfg.DSN, WithKeyPrefix(cfg.KeyPrefix), WithRedisClock(cfg.Clock))

	case "sqlite", "postgres":
		log.Info("storage: using gorm backend", zap.String("driver", drv))
		st, err := NewGormStore(drv, cfg.DSN, WithGormClock(cfg.Clock))
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}

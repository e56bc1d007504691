package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// settingRecord is the GORM model behind the settings table.
type settingRecord struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingRecord) TableName() string { return settingsTable }

// GormStore implements Store on top of a relational settings table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// GormOption is a function that configures the GORM store
type GormOption func(*GormStore)

// WithGormClock replaces the clock used to stamp updated_at.
func WithGormClock(now func() time.Time) GormOption {
	return func(s *GormStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewGormStore opens a SQLite or Postgres database.
func NewGormStore(driver, dsn string, options ...GormOption) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// in-memory databases live per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	st := &GormStore{db: db, now: time.Now}
	for _, option := range options {
		option(st)
	}
	return st, nil
}

// Migrate creates the settings table when it does not exist.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&settingRecord{})
}

func (s *GormStore) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var rec settingRecord
	result := s.db.WithContext(ctx).First(&rec, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &Setting{
		Key:       rec.Key,
		Value:     []byte(rec.Value),
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *GormStore) UpsertSetting(ctx context.Context, key string, value []byte) error {
	rec := settingRecord{
		Key:       key,
		Value:     string(value),
		UpdatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*GormStore)(nil)

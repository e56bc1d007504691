package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/omerorhan/currency-service/internal/metrics"
	"github.com/omerorhan/currency-service/internal/storage"
)

const refreshJobName = "refresh_rates"

// Refresher is the job run by the scheduler.
type Refresher interface {
	RefreshRates(ctx context.Context) RefreshResult
}

// Scheduler refreshes rates periodically. When a Locker is available only the
// process holding the refresh lock runs the job; otherwise every process does.
type Scheduler struct {
	refresher Refresher
	locker    storage.Locker
	ownerID   string
	interval  time.Duration
	lockTTL   time.Duration
	logger    *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	isLeader bool
	started  bool
}

// NewScheduler creates a scheduler. locker may be nil.
func NewScheduler(r Refresher, locker storage.Locker, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		refresher: r,
		locker:    locker,
		ownerID:   uuid.NewString(),
		interval:  interval,
		// the lock outlives one tick so the leader keeps it between runs
		lockTTL: 2 * interval,
		logger:  logger.With(zap.String("component", "scheduler")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start schedules the refresh job.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("refresh scheduler already started")
	}

	// Add jitter (±10% of interval) to prevent thundering herd across replicas
	every := addJitter(s.interval, 0.1)
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", every), s.tick); err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	s.cron.Start()
	s.started = true

	s.logger.Info("🔄 Rates refresh scheduler started",
		zap.String("owner", s.ownerID),
		zap.Duration("interval", s.interval),
		zap.Duration("jittered", every))
	return nil
}

// Stop cancels the job, waits for a running tick and releases leadership.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	if started && c != nil {
		select {
		case <-c.Stop().Done():
		case <-time.After(10 * time.Second):
			s.logger.Warn("⚠️ Timeout waiting for refresh job to stop")
		}
	}

	if s.IsLeader() {
		s.releaseLeadership()
	}
	s.logger.Info("🛑 Rates refresh scheduler stopped")
}

// IsLeader returns whether this process currently holds the refresh lock
func (s *Scheduler) IsLeader() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLeader
}

func (s *Scheduler) OwnerID() string { return s.ownerID }

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	if !s.electLeader() {
		s.logger.Debug("not the leader, skipping refresh")
		return
	}

	start := time.Now()
	res := s.refresher.RefreshRates(s.ctx)
	var err error
	if !res.Success {
		err = errors.New(res.Message)
		s.logger.Warn("❌ Scheduled refresh failed", zap.String("message", res.Message))
	}
	metrics.UpdateJobMetrics(refreshJobName, start, err)
}

// electLeader renews the lock when held and tries to take it otherwise.
func (s *Scheduler) electLeader() bool {
	if s.locker == nil {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isLeader {
		renewed, err := s.locker.RenewLock(s.ctx, storage.RefreshLockKey, s.ownerID, s.lockTTL)
		if err != nil {
			s.logger.Warn("⚠️ Failed to renew leadership", zap.Error(err))
			s.isLeader = false
			return false
		}
		if renewed {
			return true
		}
		s.logger.Info("👑 Leadership lost, becoming follower")
		s.isLeader = false
	}

	acquired, err := s.locker.AcquireLock(s.ctx, storage.RefreshLockKey, s.ownerID, s.lockTTL)
	if err != nil {
		s.logger.Warn("⚠️ Failed to acquire leadership", zap.Error(err))
		return false
	}
	if acquired {
		s.logger.Info("👑 Became leader for scheduled refreshes")
		s.isLeader = true
	}
	return acquired
}

func (s *Scheduler) releaseLeadership() {
	if s.locker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.locker.ReleaseLock(ctx, storage.RefreshLockKey, s.ownerID); err != nil {
		s.logger.Warn("⚠️ Failed to release leadership", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.isLeader = false
	s.mu.Unlock()
	s.logger.Info("👑 Leadership released")
}

// addJitter spreads duration by ±jitterPercent (0.1 = ±10%).
func addJitter(duration time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 {
		return duration
	}
	jitterRange := float64(duration) * jitterPercent
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange

	result := time.Duration(float64(duration) + jitter)
	if result <= 0 {
		result = duration / 2
	}
	// cron's @every has second granularity
	if result < time.Second {
		result = time.Second
	}
	return result.Round(time.Second)
}

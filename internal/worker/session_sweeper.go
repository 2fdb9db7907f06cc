package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/observability"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// SessionSweeper deletes session records older than the retention window, expired or not.
type SessionSweeper struct {
	sessions repository.SessionRepository
	maxAge   time.Duration
	interval time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionSweeper builds a sweeper from the retention settings.
func NewSessionSweeper(sessions repository.SessionRepository, cfg config.RetentionConfig, metrics *observability.Metrics, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		maxAge:   cfg.SessionMaxAge,
		interval: cfg.SweepInterval,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// SweepOnce removes every record created before now minus the retention window.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.now()
	removed, err := s.sessions.DeleteCreatedBefore(ctx, now.Add(-s.maxAge))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSweep(removed, now)
	}
	s.logger.Info("session records swept", zap.Int64("removed", removed))
	return removed, nil
}

// Run sweeps on every tick until ctx is cancelled. Failed sweeps are logged and retried on the next tick.
func (s *SessionSweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("session sweep failed", zap.Error(err))
			}
		}
	}
}

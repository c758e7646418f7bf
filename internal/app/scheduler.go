package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PoolStats is a snapshot of database connection pool usage.
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

// Scheduler runs background housekeeping tasks.
type Scheduler struct {
	poolStats func() PoolStats
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

func NewScheduler(poolStats func() PoolStats, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		poolStats: poolStats,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the tasks in the background.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runPoolReportTask(ctx)
}

// Stop ends the tasks and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) runPoolReportTask(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportPool()
		case <-s.stopChan:
			s.logger.Info("Pool report task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Pool report task cancelled")
			return
		}
	}
}

func (s *Scheduler) reportPool() {
	st := s.poolStats()

	fields := []zap.Field{
		zap.Int32("total", st.Total),
		zap.Int32("idle", st.Idle),
		zap.Int32("acquired", st.Acquired),
		zap.Int32("max", st.Max),
	}

	// every connection busy means requests are queueing for one
	if st.Max > 0 && st.Acquired >= st.Max {
		s.logger.Warn("Database pool exhausted", fields...)
		return
	}
	s.logger.Debug("Database pool usage", fields...)
}

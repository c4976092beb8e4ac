package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"metadarr/internal/config"
	"metadarr/internal/controllers"
	"metadarr/internal/models"
)

// Scheduler manages periodic background tasks
type Scheduler struct {
	cron     *cron.Cron
	db       *models.Database
	backfill *controllers.BackfillController
	ttlDays  int
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(db *models.Database, backfill *controllers.BackfillController, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		backfill: backfill,
		ttlDays:  cfg.FailedLookupTTLDays,
		logger:   logger,
	}
}

// Start registers the periodic jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("@every 15m", func() {
		s.runBackfill(ctx)
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@every 1h", func() {
		s.purgeFailedLookups()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Drain the backfill queue once at startup so jobs queued before a
	// restart are not delayed by a full interval.
	go s.runBackfill(ctx)

	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runBackfill(ctx context.Context) {
	if err := s.backfill.Run(ctx); err != nil {
		s.logger.WithError(err).Error("Backfill run failed")
	}
}

func (s *Scheduler) purgeFailedLookups() {
	cutoff := time.Now().AddDate(0, 0, -s.ttlDays)
	purged, err := s.db.PurgeExpiredFailedLookups(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed lookup purge failed")
		return
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Expired failed lookups removed")
	}
}

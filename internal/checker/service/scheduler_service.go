package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/marketday"
)

// SchedulerService runs the checker on a cron schedule and catches up on a
// missed run at startup: if the process was down past a scheduled slot on a
// trading day, one run fires immediately.
type SchedulerService struct {
	logger       *logger.Logger
	checker      *CheckerService
	lastRunStore *store.LastRunStore
	cronSpec     string
	cron         *cron.Cron
	clock        func() time.Time
}

// NewSchedulerService creates a new SchedulerService. A nil clock defaults to
// time.Now.
func NewSchedulerService(log *logger.Logger, checker *CheckerService, lastRunStore *store.LastRunStore, cronSpec string, clock func() time.Time) *SchedulerService {
	if clock == nil {
		clock = time.Now
	}
	if cronSpec == "" {
		cronSpec = "0 8 * * 1-5"
	}
	return &SchedulerService{
		logger:       log,
		checker:      checker,
		lastRunStore: lastRunStore,
		cronSpec:     cronSpec,
		clock:        clock,
	}
}

// Start registers the cron entry, fires a catch-up run when one was missed,
// and blocks until ctx is canceled.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cronSpec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	if s.MissedRun() {
		s.logger.Info("Missed a scheduled run, catching up now")
		s.runOnce(ctx)
	}

	s.logger.Info("Scheduler started", logger.StringField("cron", s.cronSpec))
	s.cron.Start()

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

// MissedRun reports whether a scheduled run was skipped: today is a trading
// day past the scheduled slot and the last recorded run predates that slot.
// A missing last-run record on a trading day also counts as missed.
func (s *SchedulerService) MissedRun() bool {
	now := s.clock()
	if !marketday.IsOpen(now) {
		return false
	}

	schedule, err := cron.ParseStandard(s.cronSpec)
	if err != nil {
		return false
	}
	// Walk forward from a day ago to the most recent slot that has already
	// passed.
	slot := schedule.Next(now.Add(-24 * time.Hour))
	if slot.After(now) {
		return false
	}
	for {
		next := schedule.Next(slot)
		if next.After(now) {
			break
		}
		slot = next
	}

	lastRun, ok := s.lastRunStore.Read()
	if !ok {
		return true
	}
	return lastRun.Before(slot)
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	start := s.clock()
	s.logger.Info("Starting scheduled check")
	if err := s.checker.Execute(ctx); err != nil {
		s.logger.Error("Scheduled check failed", logger.ErrorField(err))
		return
	}
	s.logger.Info("Scheduled check finished",
		logger.StringField("duration", time.Since(start).String()))
}

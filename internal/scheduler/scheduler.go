package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rentalshop-backend/internal/jobs"
	"rentalshop-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler with every job registered. A malformed cron
// spec is an error rather than a silently skipped job.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.BackfillInvoices, s.jobs.BackfillInvoices); err != nil {
		return fmt.Errorf("register BackfillInvoices job: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.PurgeStaleOverrides, s.jobs.PurgeStaleOverrides); err != nil {
		return fmt.Errorf("register PurgeStaleOverrides job: %w", err)
	}

	logger.Info("All cron jobs registered successfully", "count", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

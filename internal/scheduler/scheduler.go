// Package scheduler triggers the batch jobs in-process on a fixed interval,
// for deployments without an external cron.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type Scheduler struct {
	jobs     services.JobRunner
	interval time.Duration
	logger   *logging.Logger
}

func New(jobs services.JobRunner, interval time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &Scheduler{
		jobs:     jobs,
		interval: interval,
		logger:   logger.WithField("component", "scheduler"),
	}
}

// Run fires both jobs every interval until ctx is cancelled. A zero interval
// returns immediately. Job failures are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	s.logger.Info("Scheduler started", logging.Fields{"interval": s.interval.String()})
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs decay, then matching.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if _, err := s.jobs.RunDecay(ctx); err != nil {
		s.report(services.JobDecay, err)
	}
	if ctx.Err() != nil {
		return
	}
	if _, err := s.jobs.RunExchange(ctx); err != nil {
		s.report(services.JobRandomExchange, err)
	}
}

func (s *Scheduler) report(job string, err error) {
	if errors.Is(err, services.ErrJobAlreadyRunning) {
		s.logger.Info("Job already running elsewhere, skipped", logging.Fields{"job": job})
		return
	}
	s.logger.Error("Scheduled job failed", logging.Fields{"job": job, "error": err.Error()})
}

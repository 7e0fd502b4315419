package services

import (
	"context"
	"errors"
	"time"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

var ErrJobAlreadyRunning = errors.New("job already running")

const (
	JobDecay          = "decay"
	JobRandomExchange = "random_exchange"

	defaultLeaseTTL = 5 * time.Minute
)

// JobService loads current settings, takes the job's lease and runs it.
type JobService struct {
	settings SettingsServiceInterface
	decay    DecayRunner
	exchange ExchangeMatcher
	locker   Locker
	leaseTTL time.Duration
	logger   *logging.Logger
}

func NewJobService(settings SettingsServiceInterface, decay DecayRunner, exchange ExchangeMatcher, locker Locker, leaseTTL time.Duration, logger *logging.Logger) *JobService {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	if logger == nil {
		logger = logging.Default
	}
	return &JobService{
		settings: settings,
		decay:    decay,
		exchange: exchange,
		locker:   locker,
		leaseTTL: leaseTTL,
		logger:   logger,
	}
}

func (s *JobService) RunDecay(ctx context.Context) (*models.DecayResult, error) {
	settings := s.settings.Decay(ctx)
	if !settings.Enabled {
		return &models.DecayResult{}, nil
	}

	var result *models.DecayResult
	err := s.withLease(ctx, JobDecay, func(ctx context.Context) error {
		var err error
		result, err = s.decay.Run(ctx, settings)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Decay run finished", logging.Fields{
		"processed": result.Processed,
		"expired":   result.Expired,
		"total":     result.Total,
		"skipped":   result.Skipped,
	})
	return result, nil
}

func (s *JobService) RunExchange(ctx context.Context) (*models.MatchResult, error) {
	settings := s.settings.Exchange(ctx)
	if !settings.Enabled {
		return &models.MatchResult{}, nil
	}

	var result *models.MatchResult
	err := s.withLease(ctx, JobRandomExchange, func(ctx context.Context) error {
		var err error
		result, err = s.exchange.Match(ctx, settings)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Random exchange run finished", logging.Fields{
		"queue_size":         result.QueueSize,
		"matched_pairs":      result.MatchedPairs,
		"remaining_in_queue": result.RemainingInQueue,
		"skipped":            result.Skipped,
	})
	return result, nil
}

func (s *JobService) withLease(ctx context.Context, job string, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	release, err := s.locker.Acquire(ctx, "lock:job:"+job, s.leaseTTL)
	if errors.Is(err, ErrLeaseHeld) {
		return ErrJobAlreadyRunning
	}
	if err != nil {
		s.logger.Warn("Job lease unavailable, running without it", logging.Fields{"job": job, "error": err.Error()})
		return fn(ctx)
	}
	defer func() {
		// The job's own context may already be cancelled.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release job lease", logging.Fields{"job": job, "error": err.Error()})
		}
	}()

	return fn(ctx)
}

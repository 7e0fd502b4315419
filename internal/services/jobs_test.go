package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HammerMeetNail/timegift/internal/models"
)

type stubSettings struct {
	decay    models.DecaySettings
	exchange models.ExchangeSettings
}

func (s *stubSettings) Decay(ctx context.Context) models.DecaySettings       { return s.decay }
func (s *stubSettings) Exchange(ctx context.Context) models.ExchangeSettings { return s.exchange }
func (s *stubSettings) All(ctx context.Context) AllSettings {
	return AllSettings{Decay: s.decay, Exchange: s.exchange}
}
func (s *stubSettings) UpdateDecay(ctx context.Context, v models.DecaySettings) (models.DecaySettings, error) {
	s.decay = v
	return v, nil
}
func (s *stubSettings) UpdateExchange(ctx context.Context, v models.ExchangeSettings) (models.ExchangeSettings, error) {
	s.exchange = v
	return v, nil
}

type decayRunnerFunc func(ctx context.Context, s models.DecaySettings) (*models.DecayResult, error)

func (f decayRunnerFunc) Run(ctx context.Context, s models.DecaySettings) (*models.DecayResult, error) {
	return f(ctx, s)
}

type matcherFunc func(ctx context.Context, s models.ExchangeSettings) (*models.MatchResult, error)

func (f matcherFunc) Match(ctx context.Context, s models.ExchangeSettings) (*models.MatchResult, error) {
	return f(ctx, s)
}

type lockerFunc func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)

func (f lockerFunc) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	return f(ctx, key, ttl)
}

func TestJobService_RunDecay_UsesStoredSettingsUnderLease(t *testing.T) {
	settings := &stubSettings{decay: models.DecaySettings{Enabled: true, RatePercent: 10, IntervalDays: 1}}
	var gotSettings models.DecaySettings
	var gotKey string
	var gotTTL time.Duration
	released := false

	svc := NewJobService(settings,
		decayRunnerFunc(func(ctx context.Context, s models.DecaySettings) (*models.DecayResult, error) {
			gotSettings = s
			return &models.DecayResult{Enabled: true, Processed: 2, Total: 3}, nil
		}),
		nil,
		lockerFunc(func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
			gotKey, gotTTL = key, ttl
			return func(context.Context) error { released = true; return nil }, nil
		}),
		time.Minute,
		quietLogger(),
	)

	result, err := svc.RunDecay(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 2 || result.Total != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotSettings != settings.decay {
		t.Errorf("expected stored settings to be passed, got %+v", gotSettings)
	}
	if gotKey != "lock:job:decay" || gotTTL != time.Minute {
		t.Errorf("unexpected lease %q %v", gotKey, gotTTL)
	}
	if !released {
		t.Error("expected lease release")
	}
}

func TestJobService_RunDecay_DisabledSkipsLease(t *testing.T) {
	settings := &stubSettings{decay: models.DecaySettings{Enabled: false}}
	svc := NewJobService(settings,
		decayRunnerFunc(func(ctx context.Context, s models.DecaySettings) (*models.DecayResult, error) {
			t.Fatal("decay must not run when disabled")
			return nil, nil
		}),
		nil,
		lockerFunc(func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
			t.Fatal("lease must not be taken when disabled")
			return nil, nil
		}),
		0, quietLogger(),
	)

	result, err := svc.RunDecay(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Enabled {
		t.Fatalf("expected disabled result, got %+v", result)
	}
}

func TestJobService_RunExchange_LeaseHeld(t *testing.T) {
	settings := &stubSettings{exchange: models.DefaultExchangeSettings()}
	svc := NewJobService(settings, nil,
		matcherFunc(func(ctx context.Context, s models.ExchangeSettings) (*models.MatchResult, error) {
			t.Fatal("matching must not run without the lease")
			return nil, nil
		}),
		lockerFunc(func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
			if key != "lock:job:random_exchange" {
				t.Fatalf("unexpected key %q", key)
			}
			return nil, ErrLeaseHeld
		}),
		0, quietLogger(),
	)

	if _, err := svc.RunExchange(context.Background()); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("expected ErrJobAlreadyRunning, got %v", err)
	}
}

func TestJobService_RunExchange_LockerErrorFailsOpen(t *testing.T) {
	ran := false
	settings := &stubSettings{exchange: models.DefaultExchangeSettings()}
	svc := NewJobService(settings, nil,
		matcherFunc(func(ctx context.Context, s models.ExchangeSettings) (*models.MatchResult, error) {
			ran = true
			return &models.MatchResult{Enabled: true, MatchedPairs: 1}, nil
		}),
		lockerFunc(func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
			return nil, errors.New("redis down")
		}),
		0, quietLogger(),
	)

	result, err := svc.RunExchange(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran || result.MatchedPairs != 1 {
		t.Fatalf("expected matching to run, got %+v", result)
	}
}

func TestJobService_RunExchange_PropagatesJobError(t *testing.T) {
	settings := &stubSettings{exchange: models.DefaultExchangeSettings()}
	released := false
	svc := NewJobService(settings, nil,
		matcherFunc(func(ctx context.Context, s models.ExchangeSettings) (*models.MatchResult, error) {
			return nil, errors.New("db down")
		}),
		lockerFunc(func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
			return func(context.Context) error { released = true; return nil }, nil
		}),
		0, quietLogger(),
	)

	if _, err := svc.RunExchange(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !released {
		t.Error("expected lease release after failure")
	}
}

func TestJobService_WithRedisLocker(t *testing.T) {
	_, client := newTestRedis(t)
	settings := &stubSettings{decay: models.DefaultDecaySettings()}

	var svc *JobService
	svc = NewJobService(settings,
		decayRunnerFunc(func(ctx context.Context, s models.DecaySettings) (*models.DecayResult, error) {
			if _, err := svc.RunDecay(ctx); !errors.Is(err, ErrJobAlreadyRunning) {
				t.Errorf("expected nested run to be refused, got %v", err)
			}
			return &models.DecayResult{Enabled: true}, nil
		}),
		nil, NewRedisLocker(client), time.Minute, quietLogger(),
	)

	if _, err := svc.RunDecay(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RunDecay(context.Background()); err != nil {
		t.Fatalf("expected lease to be released after the run, got %v", err)
	}
}

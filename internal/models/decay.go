package models

import (
	"errors"
	"math"
	"time"
)

// DecaySettings is the typed form of the "time_decay" admin setting.
type DecaySettings struct {
	Enabled         bool    `json:"enabled"`
	RatePercent     float64 `json:"rate_percent"`
	IntervalDays    float64 `json:"interval_days"`
	GracePeriodDays float64 `json:"grace_period_days"`
}

func DefaultDecaySettings() DecaySettings {
	return DecaySettings{
		Enabled:         true,
		RatePercent:     5,
		IntervalDays:    7,
		GracePeriodDays: 3,
	}
}

var (
	ErrDecayRate     = errors.New("rate_percent must be between 0 and 100")
	ErrDecayInterval = errors.New("interval_days must be greater than zero")
	ErrDecayGrace    = errors.New("grace_period_days must not be negative")
)

func (s DecaySettings) Validate() error {
	if math.IsNaN(s.RatePercent) || s.RatePercent < 0 || s.RatePercent > 100 {
		return ErrDecayRate
	}
	if math.IsNaN(s.IntervalDays) || math.IsInf(s.IntervalDays, 0) || s.IntervalDays <= 0 {
		return ErrDecayInterval
	}
	if math.IsNaN(s.GracePeriodDays) || math.IsInf(s.GracePeriodDays, 0) || s.GracePeriodDays < 0 {
		return ErrDecayGrace
	}
	return nil
}

// GraceCutoff is the creation time before which a pending gift is a decay
// candidate. Fractional grace periods are honored to the nanosecond.
func (s DecaySettings) GraceCutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(s.GracePeriodDays * float64(day)))
}

const day = 24 * time.Hour

// DecayOutcome is the result of evaluating one gift.
type DecayOutcome struct {
	DaysSinceCreation int
	IntervalsElapsed  int
	// Due is false when no full interval has elapsed past the grace period;
	// the gift is left untouched.
	Due       bool
	NewAmount int
	Expire    bool
}

// ComputeDecay recomputes a pending gift's remaining minutes from its
// original amount. It never compounds from the current amount, so repeated
// evaluation at the same instant yields the same result.
func ComputeDecay(originalAmount int, createdAt, now time.Time, s DecaySettings) DecayOutcome {
	var out DecayOutcome
	if s.IntervalDays <= 0 {
		return out
	}

	out.DaysSinceCreation = int(math.Floor(float64(now.Sub(createdAt)) / float64(day)))
	daysSinceGrace := float64(out.DaysSinceCreation) - s.GracePeriodDays
	out.IntervalsElapsed = int(math.Floor(daysSinceGrace / s.IntervalDays))
	if out.IntervalsElapsed <= 0 {
		out.IntervalsElapsed = 0
		return out
	}

	factor := math.Pow(1-s.RatePercent/100, float64(out.IntervalsElapsed))
	amount := int(math.Floor(float64(originalAmount) * factor))
	if amount < 0 {
		amount = 0
	}
	if amount > originalAmount {
		amount = originalAmount
	}

	out.Due = true
	out.NewAmount = amount
	out.Expire = amount == 0
	return out
}

// DecayResult summarizes one run of the decay job.
type DecayResult struct {
	Enabled bool `json:"-"`
	// Processed counts gifts whose amount was reduced but not to zero.
	Processed int `json:"processed"`
	Expired   int `json:"expired"`
	// Total is the number of candidates past the grace period.
	Total int `json:"total"`
	// Skipped counts gifts another writer changed between read and update.
	Skipped int `json:"skipped"`
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

// DecayService shrinks the remaining time of pending gifts and expires those
// that reach zero.
type DecayService struct {
	db     DB
	logger *logging.Logger
	now    func() time.Time
}

func NewDecayService(db DB, logger *logging.Logger) *DecayService {
	if logger == nil {
		logger = logging.Default
	}
	return &DecayService{db: db, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (s *DecayService) SetClock(now func() time.Time) {
	s.now = now
}

type decayCandidate struct {
	id        uuid.UUID
	original  int
	createdAt time.Time
}

// Run applies one decay pass. Each gift is updated with its own conditional
// statement; a database error stops the pass and earlier updates remain.
func (s *DecayService) Run(ctx context.Context, settings models.DecaySettings) (*models.DecayResult, error) {
	if !settings.Enabled {
		return &models.DecayResult{}, nil
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("decay settings: %w", err)
	}

	now := s.now().UTC()
	candidates, err := s.candidates(ctx, settings.GraceCutoff(now))
	if err != nil {
		return nil, err
	}

	result := &models.DecayResult{Enabled: true, Total: len(candidates)}
	for _, c := range candidates {
		out := models.ComputeDecay(c.original, c.createdAt, now, settings)
		if !out.Due {
			continue
		}

		applied, err := s.apply(ctx, c.id, out)
		if err != nil {
			return nil, err
		}
		switch {
		case !applied:
			result.Skipped++
			s.logger.Debug("Gift changed during decay, skipping", logging.Fields{"gift_id": c.id.String()})
		case out.Expire:
			result.Expired++
		default:
			result.Processed++
		}
	}

	return result, nil
}

func (s *DecayService) candidates(ctx context.Context, cutoff time.Time) ([]decayCandidate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, original_time_amount, created_at
		 FROM gifts
		 WHERE status = 'pending' AND created_at < $1
		 ORDER BY created_at ASC, id ASC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching decay candidates: %w", err)
	}
	defer rows.Close()

	var out []decayCandidate
	for rows.Next() {
		var c decayCandidate
		if err := rows.Scan(&c.id, &c.original, &c.createdAt); err != nil {
			return nil, fmt.Errorf("scanning decay candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decay candidates: %w", err)
	}
	return out, nil
}

// apply writes the outcome only while the gift is still pending and its
// amount would not grow, so overlapping runs cannot move it backward.
func (s *DecayService) apply(ctx context.Context, giftID uuid.UUID, out models.DecayOutcome) (bool, error) {
	var (
		tag CommandTag
		err error
	)
	if out.Expire {
		tag, err = s.db.Exec(ctx,
			`UPDATE gifts
			 SET time_amount = 0, status = 'expired', updated_at = NOW()
			 WHERE id = $1 AND status = 'pending'`,
			giftID,
		)
	} else {
		tag, err = s.db.Exec(ctx,
			`UPDATE gifts
			 SET time_amount = $2, updated_at = NOW()
			 WHERE id = $1 AND status = 'pending' AND time_amount >= $2`,
			giftID, out.NewAmount,
		)
	}
	if err != nil {
		return false, fmt.Errorf("updating gift %s: %w", giftID, err)
	}
	return tag.RowsAffected() > 0, nil
}

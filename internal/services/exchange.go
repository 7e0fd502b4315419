package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

var (
	ErrAlreadyQueued = errors.New("already waiting in the random exchange queue")
	ErrNotQueued     = errors.New("no random exchange request found")
)

// Pairer chooses which waiting requests exchange gifts. Entries arrive in
// queue order and every entry may appear in at most one pair.
type Pairer func(entries []models.QueueEntry, settings models.ExchangeSettings) []models.Pair

// PairFIFO pairs neighbours in arrival order: 0 with 1, 2 with 3 and so on.
// An odd entry out stays queued.
func PairFIFO(entries []models.QueueEntry, _ models.ExchangeSettings) []models.Pair {
	pairs := make([]models.Pair, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		pairs = append(pairs, models.Pair{A: entries[i], B: entries[i+1]})
	}
	return pairs
}

type ExchangeService struct {
	db     DB
	pair   Pairer
	logger *logging.Logger
}

func NewExchangeService(db DB, logger *logging.Logger) *ExchangeService {
	if logger == nil {
		logger = logging.Default
	}
	return &ExchangeService{db: db, pair: PairFIFO, logger: logger}
}

func (s *ExchangeService) SetPairer(p Pairer) {
	if p == nil {
		p = PairFIFO
	}
	s.pair = p
}

const queueColumns = `id, user_id, time_amount, time_unit, purpose_type, purpose_details,
		        matched, matched_with, created_at, updated_at`

func scanQueueEntry(row Row) (*models.QueueEntry, error) {
	e := &models.QueueEntry{}
	var unit, purpose string
	if err := row.Scan(
		&e.ID, &e.UserID, &e.TimeAmount, &unit, &purpose, &e.PurposeDetails,
		&e.Matched, &e.MatchedWith, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.TimeUnit = models.TimeUnit(unit)
	e.PurposeType = models.PurposeType(purpose)
	return e, nil
}

// Join places the user's request in the queue. The amount is stored in
// minutes; the unit is kept for display.
func (s *ExchangeService) Join(ctx context.Context, userID uuid.UUID, params models.JoinQueueParams) (*models.QueueEntry, error) {
	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	minutes, err := params.TimeUnit.ToMinutes(params.TimeAmount)
	if err != nil {
		return nil, err
	}

	entry, err := scanQueueEntry(s.db.QueryRow(ctx,
		`INSERT INTO random_exchange_queue (user_id, time_amount, time_unit, purpose_type, purpose_details)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+queueColumns,
		userID, minutes, string(params.TimeUnit), string(params.PurposeType), params.PurposeDetails,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyQueued
		}
		return nil, fmt.Errorf("joining random exchange queue: %w", err)
	}
	return entry, nil
}

// Status returns the user's most recent queue entry.
func (s *ExchangeService) Status(ctx context.Context, userID uuid.UUID) (*models.QueueEntry, error) {
	entry, err := scanQueueEntry(s.db.QueryRow(ctx,
		`SELECT `+queueColumns+`
		 FROM random_exchange_queue
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotQueued
	}
	if err != nil {
		return nil, fmt.Errorf("getting queue status: %w", err)
	}
	return entry, nil
}

// Match pairs waiting requests and creates one gift in each direction per
// pair. Each pair commits on its own; a database error stops the run and
// pairs committed before it stay matched.
func (s *ExchangeService) Match(ctx context.Context, settings models.ExchangeSettings) (*models.MatchResult, error) {
	if !settings.Enabled {
		return &models.MatchResult{}, nil
	}

	entries, err := s.unmatched(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.MatchResult{
		Enabled:          true,
		QueueSize:        len(entries),
		RemainingInQueue: len(entries),
	}
	if len(entries) < 2 {
		return result, nil
	}

	pairs := s.pair(entries, settings)
	result.RemainingInQueue = len(entries) - 2*len(pairs)

	for _, p := range pairs {
		matched, err := s.matchPair(ctx, p)
		if err != nil {
			return nil, err
		}
		if !matched {
			result.Skipped++
			s.logger.Debug("Queue entry claimed elsewhere, skipping pair", logging.Fields{
				"entry_a": p.A.ID.String(),
				"entry_b": p.B.ID.String(),
			})
			continue
		}
		result.MatchedPairs++
	}

	return result, nil
}

func (s *ExchangeService) unmatched(ctx context.Context) ([]models.QueueEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+queueColumns+`
		 FROM random_exchange_queue
		 WHERE matched = false
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching queue: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queue: %w", err)
	}
	return entries, nil
}

func (s *ExchangeService) matchPair(ctx context.Context, p models.Pair) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning match transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, claim := range []struct {
		entry   models.QueueEntry
		partner uuid.UUID
	}{
		{p.A, p.B.UserID},
		{p.B, p.A.UserID},
	} {
		tag, err := tx.Exec(ctx,
			`UPDATE random_exchange_queue
			 SET matched = true, matched_with = $2, updated_at = NOW()
			 WHERE id = $1 AND matched = false`,
			claim.entry.ID, claim.partner,
		)
		if err != nil {
			return false, fmt.Errorf("claiming queue entry %s: %w", claim.entry.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return false, nil
		}
	}

	if err := insertExchangeGift(ctx, tx, p.A, p.B.UserID); err != nil {
		return false, err
	}
	if err := insertExchangeGift(ctx, tx, p.B, p.A.UserID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing match: %w", err)
	}
	committed = true
	return true, nil
}

func insertExchangeGift(ctx context.Context, tx Tx, from models.QueueEntry, to uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO gifts (sender_id, recipient_id, message, original_time_amount, time_amount,
		                    time_unit, purpose_type, purpose_details, status, is_random_exchange)
		 VALUES ($1, $2, $3, $4, $4, $5, $6, $7, 'pending', true)`,
		from.UserID, to, models.RandomExchangeMessage, from.TimeAmount,
		string(from.TimeUnit), string(from.PurposeType), from.PurposeDetails,
	)
	if err != nil {
		return fmt.Errorf("creating exchange gift from %s: %w", from.UserID, err)
	}
	return nil
}

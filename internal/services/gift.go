package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

var (
	ErrGiftNotFound       = errors.New("gift not found")
	ErrNotGiftRecipient   = errors.New("not authorized to accept this gift")
	ErrNotGiftParticipant = errors.New("not a participant in this gift")
	ErrInvalidTransition  = errors.New("gift cannot move to the requested status")
	ErrGiftPastExpiry     = errors.New("gift has passed its expiry date")
	ErrInvalidSchedule    = errors.New("scheduled time must be in the future")
	ErrGiftStateChanged   = errors.New("gift was changed by another request")
)

// RecipientResolver finds an existing account for an email or phone.
type RecipientResolver interface {
	FindByContact(ctx context.Context, email, phone *string) (*models.User, error)
}

// GiftNotifier is told about gift lifecycle events. Failures are logged by
// GiftService and never fail the triggering operation.
type GiftNotifier interface {
	NotifyGiftCreated(ctx context.Context, gift *models.Gift, sender *models.User) error
	NotifyGiftAccepted(ctx context.Context, gift *models.Gift) error
	NotifyGiftScheduled(ctx context.Context, gift *models.Gift) error
}

type GiftService struct {
	db       DB
	users    RecipientResolver
	notifier GiftNotifier
	logger   *logging.Logger
	now      func() time.Time
}

func NewGiftService(db DB, users RecipientResolver, notifier GiftNotifier, logger *logging.Logger) *GiftService {
	if logger == nil {
		logger = logging.Default
	}
	return &GiftService{db: db, users: users, notifier: notifier, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (s *GiftService) SetClock(now func() time.Time) {
	s.now = now
}

const giftColumns = `id, sender_id, recipient_id, recipient_email, recipient_phone, message,
		        original_time_amount, time_amount, time_unit, purpose_type, purpose_details,
		        availability_data, status, is_random_exchange, scheduled_datetime, expiry_date,
		        created_at, updated_at, accepted_at, completed_at`

// giftRecipientFK is the foreign key from gifts.recipient_id to users.
const giftRecipientFK = "gifts_recipient_id_fkey"

func scanGift(row Row) (*models.Gift, error) {
	g := &models.Gift{}
	var unit, purpose, status string
	var availability []byte
	if err := row.Scan(
		&g.ID, &g.SenderID, &g.RecipientID, &g.RecipientEmail, &g.RecipientPhone, &g.Message,
		&g.OriginalTimeAmount, &g.TimeAmount, &unit, &purpose, &g.PurposeDetails,
		&availability, &status, &g.IsRandomExchange, &g.ScheduledDateTime, &g.ExpiryDate,
		&g.CreatedAt, &g.UpdatedAt, &g.AcceptedAt, &g.CompletedAt,
	); err != nil {
		return nil, err
	}
	g.TimeUnit = models.TimeUnit(unit)
	g.PurposeType = models.PurposeType(purpose)
	g.Status = models.GiftStatus(status)
	if len(availability) > 0 {
		g.AvailabilityData = availability
	}
	return g, nil
}

func (s *GiftService) Create(ctx context.Context, sender *models.User, params models.CreateGiftParams) (*models.Gift, error) {
	params.Normalize()
	if err := params.Validate(s.now()); err != nil {
		return nil, err
	}
	minutes, err := params.TimeUnit.ToMinutes(params.TimeAmount)
	if err != nil {
		return nil, err
	}

	recipientID := params.RecipientID
	if recipientID == nil && s.users != nil {
		recipient, err := s.users.FindByContact(ctx, params.RecipientEmail, params.RecipientPhone)
		switch {
		case err == nil:
			recipientID = &recipient.ID
		case !errors.Is(err, ErrUserNotFound):
			return nil, fmt.Errorf("resolving recipient: %w", err)
		}
	}
	if recipientID != nil && *recipientID == sender.ID {
		return nil, models.ErrCannotGiftSelf
	}

	var availability any
	if len(params.AvailabilityData) > 0 {
		availability = []byte(params.AvailabilityData)
	}

	gift, err := scanGift(s.db.QueryRow(ctx,
		`INSERT INTO gifts (sender_id, recipient_id, recipient_email, recipient_phone, message,
		                    original_time_amount, time_amount, time_unit, purpose_type, purpose_details,
		                    availability_data, expiry_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, $10, $11, 'pending')
		 RETURNING `+giftColumns,
		sender.ID, recipientID, params.RecipientEmail, params.RecipientPhone, params.Message,
		minutes, string(params.TimeUnit), string(params.PurposeType), params.PurposeDetails,
		availability, params.ExpiryDate,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" && pgErr.ConstraintName == giftRecipientFK {
			return nil, models.ErrUnknownRecipient
		}
		return nil, fmt.Errorf("creating gift: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyGiftCreated(ctx, gift, sender); err != nil {
			s.logger.Error("Failed to send gift created notifications", logging.Fields{
				"gift_id": gift.ID.String(),
				"error":   err.Error(),
			})
		}
	}
	return gift, nil
}

func (s *GiftService) getByID(ctx context.Context, giftID uuid.UUID) (*models.Gift, error) {
	gift, err := scanGift(s.db.QueryRow(ctx,
		`SELECT `+giftColumns+` FROM gifts WHERE id = $1`,
		giftID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGiftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting gift: %w", err)
	}
	return gift, nil
}

// Get returns a gift visible to user as its sender or recipient. Other users
// get ErrGiftNotFound.
func (s *GiftService) Get(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error) {
	gift, err := s.getByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift.SenderID != user.ID && !gift.IsAddressedTo(user) {
		return nil, ErrGiftNotFound
	}
	return gift, nil
}

// Accept moves a pending gift to accepted, or straight to scheduled when
// scheduledAt is given, and binds it to the accepting account.
func (s *GiftService) Accept(ctx context.Context, user *models.User, giftID uuid.UUID, scheduledAt *time.Time) (*models.Gift, error) {
	gift, err := s.getByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if !gift.IsAddressedTo(user) {
		return nil, ErrNotGiftRecipient
	}

	target := models.GiftStatusAccepted
	if scheduledAt != nil {
		target = models.GiftStatusScheduled
	}
	if !models.CanTransition(gift.Status, target) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	if gift.PastExpiry(now) {
		return nil, ErrGiftPastExpiry
	}
	if scheduledAt != nil && !scheduledAt.After(now) {
		return nil, ErrInvalidSchedule
	}

	updated, err := s.transition(ctx, giftID, gift.Status,
		`UPDATE gifts
		 SET status = $3, accepted_at = NOW(), scheduled_datetime = $4,
		     recipient_id = COALESCE(recipient_id, $5), updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+giftColumns,
		string(target), scheduledAt, user.ID,
	)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyGiftAccepted(ctx, updated); err != nil {
			s.logger.Error("Failed to send gift accepted notification", logging.Fields{
				"gift_id": giftID.String(),
				"error":   err.Error(),
			})
		}
	}
	return updated, nil
}

// Schedule lets the recipient of an accepted gift commit to a time.
func (s *GiftService) Schedule(ctx context.Context, user *models.User, giftID uuid.UUID, at time.Time) (*models.Gift, error) {
	gift, err := s.getByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if !gift.IsAddressedTo(user) {
		return nil, ErrNotGiftRecipient
	}
	if gift.Status != models.GiftStatusAccepted || !models.CanTransition(gift.Status, models.GiftStatusScheduled) {
		return nil, ErrInvalidTransition
	}
	if !at.After(s.now()) {
		return nil, ErrInvalidSchedule
	}

	updated, err := s.transition(ctx, giftID, gift.Status,
		`UPDATE gifts
		 SET status = $3, scheduled_datetime = $4, updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+giftColumns,
		string(models.GiftStatusScheduled), at,
	)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyGiftScheduled(ctx, updated); err != nil {
			s.logger.Error("Failed to send gift scheduled notification", logging.Fields{
				"gift_id": giftID.String(),
				"error":   err.Error(),
			})
		}
	}
	return updated, nil
}

// Complete marks an accepted or scheduled gift as redeemed. Either party may
// complete it.
func (s *GiftService) Complete(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error) {
	gift, err := s.getByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift.SenderID != user.ID && !gift.IsAddressedTo(user) {
		return nil, ErrNotGiftParticipant
	}
	if !models.CanTransition(gift.Status, models.GiftStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, giftID, gift.Status,
		`UPDATE gifts
		 SET status = $3, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+giftColumns,
		string(models.GiftStatusCompleted),
	)
}

// transition runs a status update guarded by the status the caller observed.
// The query receives the gift id as $1 and that status as $2.
func (s *GiftService) transition(ctx context.Context, giftID uuid.UUID, from models.GiftStatus, query string, args ...any) (*models.Gift, error) {
	all := append([]any{giftID, string(from)}, args...)
	gift, err := scanGift(s.db.QueryRow(ctx, query, all...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGiftStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("updating gift status: %w", err)
	}
	return gift, nil
}

func (s *GiftService) ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Gift, error) {
	return s.list(ctx,
		`SELECT `+giftColumns+`
		 FROM gifts
		 WHERE sender_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
}

// ListReceived includes gifts addressed to the user's email or phone that no
// account has claimed yet.
func (s *GiftService) ListReceived(ctx context.Context, user *models.User) ([]*models.Gift, error) {
	return s.list(ctx,
		`SELECT `+giftColumns+`
		 FROM gifts
		 WHERE recipient_id = $1
		    OR (recipient_id IS NULL AND (
		        ($2::text IS NOT NULL AND LOWER(recipient_email) = LOWER($2::text))
		        OR ($3::text IS NOT NULL AND recipient_phone = $3::text)))
		 ORDER BY created_at DESC`,
		user.ID, nullableString(user.Email), nullableString(user.Phone),
	)
}

func (s *GiftService) list(ctx context.Context, query string, args ...any) ([]*models.Gift, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gifts: %w", err)
	}
	defer rows.Close()

	gifts := []*models.Gift{}
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning gift: %w", err)
		}
		gifts = append(gifts, gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gifts: %w", err)
	}
	return gifts, nil
}

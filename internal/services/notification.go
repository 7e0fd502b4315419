package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	titleGiftReceived      = "You received a new TimeGift"
	titleGiftAccepted      = "Your TimeGift was accepted!"
	titleGiftScheduled     = "Your TimeGift was scheduled"
	titleReminderScheduled = "Reminder scheduled"
	titleFriendRequest     = "New friend request"

	reminderCopy = "You have been summoned!"
)

type NotificationListParams struct {
	Limit      int
	Before     *time.Time
	UnreadOnly bool
}

// GiftEmailer is the part of EmailService notifications depend on.
type GiftEmailer interface {
	SendGiftReceived(ctx context.Context, to, senderName, message string, giftID uuid.UUID) error
}

type NotificationService struct {
	db       DB
	email    GiftEmailer
	logger   *logging.Logger
	async    func(fn func())
	asyncCtx context.Context
}

func NewNotificationService(db DB, email GiftEmailer, logger *logging.Logger) *NotificationService {
	if logger == nil {
		logger = logging.Default
	}
	return &NotificationService{
		db:     db,
		email:  email,
		logger: logger,
		async: func(fn func()) {
			go fn()
		},
		asyncCtx: context.Background(),
	}
}

func (s *NotificationService) SetAsync(fn func(fn func())) {
	s.async = fn
}

func (s *NotificationService) SetAsyncContext(ctx context.Context) {
	if ctx == nil {
		s.asyncCtx = context.Background()
		return
	}
	s.asyncCtx = ctx
}

// NotifyGiftCreated records an in-app notification for a recipient with an
// account, emails an email-addressed recipient and tells the sender that
// reminders are on their way.
func (s *NotificationService) NotifyGiftCreated(ctx context.Context, gift *models.Gift, sender *models.User) error {
	if gift.RecipientID != nil {
		if err := s.insert(ctx, *gift.RecipientID, &gift.ID, models.NotificationTypeGiftReceived,
			titleGiftReceived, gift.Message, models.NotificationChannelInApp); err != nil {
			return err
		}
	}

	if gift.RecipientEmail != nil && s.email != nil {
		to, name, message, giftID := *gift.RecipientEmail, sender.Name(), gift.Message, gift.ID
		s.async(func() {
			if err := s.email.SendGiftReceived(s.asyncCtx, to, name, message, giftID); err != nil {
				s.logger.Error("Failed to send gift email", logging.Fields{
					"gift_id": giftID.String(),
					"error":   err.Error(),
				})
			}
		})
	}

	if gift.RecipientID != nil {
		message := fmt.Sprintf("We will remind you with messages such as %q until your gift is accepted.", reminderCopy)
		if err := s.insert(ctx, gift.SenderID, &gift.ID, models.NotificationTypeReminder,
			titleReminderScheduled, message, models.NotificationChannelInApp); err != nil {
			return err
		}
	}
	return nil
}

// NotifyGiftAccepted tells the sender their gift was accepted, with the
// agreed time when one was chosen.
func (s *NotificationService) NotifyGiftAccepted(ctx context.Context, gift *models.Gift) error {
	message := "The recipient accepted your gift."
	if gift.ScheduledDateTime != nil {
		message = scheduledMessage(*gift.ScheduledDateTime)
	}
	return s.insert(ctx, gift.SenderID, &gift.ID, models.NotificationTypeGiftAccepted,
		titleGiftAccepted, message, models.NotificationChannelInApp)
}

// NotifyGiftScheduled tells the sender an accepted gift now has a time.
func (s *NotificationService) NotifyGiftScheduled(ctx context.Context, gift *models.Gift) error {
	if gift.ScheduledDateTime == nil {
		return nil
	}
	return s.insert(ctx, gift.SenderID, &gift.ID, models.NotificationTypeGiftScheduled,
		titleGiftScheduled, scheduledMessage(*gift.ScheduledDateTime), models.NotificationChannelInApp)
}

// NotifyFriendRequest tells the addressee someone wants to be their friend.
func (s *NotificationService) NotifyFriendRequest(ctx context.Context, friendship *models.Friendship, requester *models.User) error {
	message := fmt.Sprintf("%s wants to add you as a friend.", requester.Name())
	return s.insert(ctx, friendship.FriendID, nil, models.NotificationTypeFriendRequest,
		titleFriendRequest, message, models.NotificationChannelInApp)
}

func scheduledMessage(at time.Time) string {
	return fmt.Sprintf("Scheduled for %s.", at.UTC().Format("Jan 2, 2006 3:04 PM MST"))
}

func (s *NotificationService) insert(ctx context.Context, userID uuid.UUID, giftID *uuid.UUID, nType models.NotificationType, title, message string, via models.NotificationChannel) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (user_id, gift_id, type, title, message, sent_via)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, giftID, string(nType), title, message, string(via),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	idx := 2

	if params.Before != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", idx))
		args = append(args, *params.Before)
		idx++
	}

	if params.UnreadOnly {
		conditions = append(conditions, "read_at IS NULL")
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, gift_id, type, title, message, sent_via, read_at, created_at
		 FROM notifications
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d`,
		strings.Join(conditions, " AND "),
		idx,
	)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var nType, via string
		if err := rows.Scan(&n.ID, &n.UserID, &n.GiftID, &nType, &n.Title, &n.Message, &via, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Type = models.NotificationType(nType)
		n.SentVia = models.NotificationChannel(via)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		"UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2",
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL",
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

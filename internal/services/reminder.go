package services

import (
	"context"
	"fmt"
	"time"

	"github.com/HammerMeetNail/timegift/internal/models"
)

const (
	reminderWindow       = 24 * time.Hour
	maxPendingReminders  = 3
	reminderPreviewRunes = 50
)

// ReminderService builds the reminder list shown to a user: scheduled time
// coming up within a day and gifts still waiting for them to accept.
type ReminderService struct {
	db  DB
	now func() time.Time
}

func NewReminderService(db DB) *ReminderService {
	return &ReminderService{db: db, now: time.Now}
}

// SetClock replaces the time source.
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ReminderService) ForUser(ctx context.Context, user *models.User) ([]models.Reminder, error) {
	now := s.now().UTC()
	reminders := []models.Reminder{}

	scheduled, err := s.query(ctx,
		`SELECT id, message, recipient_email, scheduled_datetime
		 FROM gifts
		 WHERE status = 'scheduled'
		   AND (sender_id = $1 OR recipient_id = $1)
		   AND scheduled_datetime >= $2 AND scheduled_datetime <= $3
		 ORDER BY scheduled_datetime ASC`,
		user.ID, now, now.Add(reminderWindow),
	)
	if err != nil {
		return nil, err
	}
	for _, g := range scheduled {
		with := "someone"
		if g.RecipientEmail != nil {
			with = *g.RecipientEmail
		}
		reminders = append(reminders, models.Reminder{
			Type:     models.ReminderTypeScheduled,
			GiftID:   g.ID,
			Title:    "Upcoming Scheduled Time",
			Message:  fmt.Sprintf("You have scheduled time with %s tomorrow!", with),
			Priority: models.ReminderPriorityHigh,
			DueAt:    g.ScheduledDateTime,
		})
	}

	pending, err := s.query(ctx,
		`SELECT id, message, recipient_email, scheduled_datetime
		 FROM gifts
		 WHERE status = 'pending' AND recipient_id = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		user.ID, maxPendingReminders,
	)
	if err != nil {
		return nil, err
	}
	for _, g := range pending {
		reminders = append(reminders, models.Reminder{
			Type:     models.ReminderTypePending,
			GiftID:   g.ID,
			Title:    "Pending Gift to Accept",
			Message:  fmt.Sprintf("You have a pending gift: %q", preview(g.Message)),
			Priority: models.ReminderPriorityMedium,
		})
	}

	return reminders, nil
}

func (s *ReminderService) query(ctx context.Context, query string, args ...any) ([]models.Gift, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading reminder gifts: %w", err)
	}
	defer rows.Close()

	var gifts []models.Gift
	for rows.Next() {
		var g models.Gift
		if err := rows.Scan(&g.ID, &g.Message, &g.RecipientEmail, &g.ScheduledDateTime); err != nil {
			return nil, fmt.Errorf("scanning reminder gift: %w", err)
		}
		gifts = append(gifts, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminder gifts: %w", err)
	}
	return gifts, nil
}

func preview(message string) string {
	r := []rune(message)
	if len(r) <= reminderPreviewRunes {
		return message
	}
	return string(r[:reminderPreviewRunes]) + "..."
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeGiftReceived  NotificationType = "gift_received"
	NotificationTypeGiftAccepted  NotificationType = "gift_accepted"
	NotificationTypeGiftScheduled NotificationType = "gift_scheduled"
	NotificationTypeReminder      NotificationType = "reminder"
	NotificationTypeFriendRequest NotificationType = "friend_request"
	NotificationTypeSystem        NotificationType = "system"
)

type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "in_app"
	NotificationChannelEmail NotificationChannel = "email"
)

type Notification struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	GiftID    *uuid.UUID          `json:"gift_id,omitempty"`
	Type      NotificationType    `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	SentVia   NotificationChannel `json:"sent_via"`
	ReadAt    *time.Time          `json:"read_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

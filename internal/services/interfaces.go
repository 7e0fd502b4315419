package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/models"
)

// UserServiceInterface defines the contract for profile operations.
type UserServiceInterface interface {
	Sync(ctx context.Context, user models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByContact(ctx context.Context, email, phone *string) (*models.User, error)
}

// GiftServiceInterface defines the contract for gift operations used by handlers.
type GiftServiceInterface interface {
	Create(ctx context.Context, sender *models.User, params models.CreateGiftParams) (*models.Gift, error)
	Get(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error)
	Accept(ctx context.Context, user *models.User, giftID uuid.UUID, scheduledAt *time.Time) (*models.Gift, error)
	Schedule(ctx context.Context, user *models.User, giftID uuid.UUID, at time.Time) (*models.Gift, error)
	Complete(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Gift, error)
	ListReceived(ctx context.Context, user *models.User) ([]*models.Gift, error)
}

// ExchangeServiceInterface defines the user-facing random exchange operations.
type ExchangeServiceInterface interface {
	Join(ctx context.Context, userID uuid.UUID, params models.JoinQueueParams) (*models.QueueEntry, error)
	Status(ctx context.Context, userID uuid.UUID) (*models.QueueEntry, error)
}

// SettingsServiceInterface defines the typed admin settings store.
type SettingsServiceInterface interface {
	Decay(ctx context.Context) models.DecaySettings
	Exchange(ctx context.Context) models.ExchangeSettings
	All(ctx context.Context) AllSettings
	UpdateDecay(ctx context.Context, settings models.DecaySettings) (models.DecaySettings, error)
	UpdateExchange(ctx context.Context, settings models.ExchangeSettings) (models.ExchangeSettings, error)
}

// DecayRunner runs one decay pass with explicit settings.
type DecayRunner interface {
	Run(ctx context.Context, settings models.DecaySettings) (*models.DecayResult, error)
}

// ExchangeMatcher runs one matching pass with explicit settings.
type ExchangeMatcher interface {
	Match(ctx context.Context, settings models.ExchangeSettings) (*models.MatchResult, error)
}

// JobRunner triggers the batch jobs with current settings and leases.
type JobRunner interface {
	RunDecay(ctx context.Context) (*models.DecayResult, error)
	RunExchange(ctx context.Context) (*models.MatchResult, error)
}

// NotificationServiceInterface defines the in-app notification inbox.
type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// ReminderServiceInterface defines the reminder feed.
type ReminderServiceInterface interface {
	ForUser(ctx context.Context, user *models.User) ([]models.Reminder, error)
}

// FriendServiceInterface defines friend management used by handlers.
type FriendServiceInterface interface {
	SearchUsers(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error)
	SendRequest(ctx context.Context, requester *models.User, friendID uuid.UUID) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, userID, friendshipID uuid.UUID) (*models.Friendship, error)
	RejectRequest(ctx context.Context, userID, friendshipID uuid.UUID) error
	CancelRequest(ctx context.Context, userID, friendshipID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendshipID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
}

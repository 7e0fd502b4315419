package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/models"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type mockGiftService struct {
	CreateFunc       func(ctx context.Context, sender *models.User, params models.CreateGiftParams) (*models.Gift, error)
	GetFunc          func(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error)
	AcceptFunc       func(ctx context.Context, user *models.User, giftID uuid.UUID, scheduledAt *time.Time) (*models.Gift, error)
	ScheduleFunc     func(ctx context.Context, user *models.User, giftID uuid.UUID, at time.Time) (*models.Gift, error)
	CompleteFunc     func(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error)
	ListSentFunc     func(ctx context.Context, userID uuid.UUID) ([]*models.Gift, error)
	ListReceivedFunc func(ctx context.Context, user *models.User) ([]*models.Gift, error)
}

func (m *mockGiftService) Create(ctx context.Context, sender *models.User, params models.CreateGiftParams) (*models.Gift, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sender, params)
	}
	return &models.Gift{ID: uuid.New(), SenderID: sender.ID}, nil
}

func (m *mockGiftService) Get(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, user, giftID)
	}
	return &models.Gift{ID: giftID}, nil
}

func (m *mockGiftService) Accept(ctx context.Context, user *models.User, giftID uuid.UUID, scheduledAt *time.Time) (*models.Gift, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, user, giftID, scheduledAt)
	}
	return &models.Gift{ID: giftID, Status: models.GiftStatusAccepted}, nil
}

func (m *mockGiftService) Schedule(ctx context.Context, user *models.User, giftID uuid.UUID, at time.Time) (*models.Gift, error) {
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, user, giftID, at)
	}
	return &models.Gift{ID: giftID, Status: models.GiftStatusScheduled}, nil
}

func (m *mockGiftService) Complete(ctx context.Context, user *models.User, giftID uuid.UUID) (*models.Gift, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, user, giftID)
	}
	return &models.Gift{ID: giftID, Status: models.GiftStatusCompleted}, nil
}

func (m *mockGiftService) ListSent(ctx context.Context, userID uuid.UUID) ([]*models.Gift, error) {
	if m.ListSentFunc != nil {
		return m.ListSentFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockGiftService) ListReceived(ctx context.Context, user *models.User) ([]*models.Gift, error) {
	if m.ListReceivedFunc != nil {
		return m.ListReceivedFunc(ctx, user)
	}
	return nil, nil
}

type mockJobRunner struct {
	RunDecayFunc    func(ctx context.Context) (*models.DecayResult, error)
	RunExchangeFunc func(ctx context.Context) (*models.MatchResult, error)
}

func (m *mockJobRunner) RunDecay(ctx context.Context) (*models.DecayResult, error) {
	if m.RunDecayFunc != nil {
		return m.RunDecayFunc(ctx)
	}
	return &models.DecayResult{Enabled: true}, nil
}

func (m *mockJobRunner) RunExchange(ctx context.Context) (*models.MatchResult, error) {
	if m.RunExchangeFunc != nil {
		return m.RunExchangeFunc(ctx)
	}
	return &models.MatchResult{Enabled: true}, nil
}

type mockSettingsService struct {
	decay    models.DecaySettings
	exchange models.ExchangeSettings

	UpdateDecayFunc    func(ctx context.Context, settings models.DecaySettings) (models.DecaySettings, error)
	UpdateExchangeFunc func(ctx context.Context, settings models.ExchangeSettings) (models.ExchangeSettings, error)
}

func (m *mockSettingsService) Decay(ctx context.Context) models.DecaySettings { return m.decay }

func (m *mockSettingsService) Exchange(ctx context.Context) models.ExchangeSettings {
	return m.exchange
}

func (m *mockSettingsService) All(ctx context.Context) services.AllSettings {
	return services.AllSettings{Decay: m.decay, Exchange: m.exchange}
}

func (m *mockSettingsService) UpdateDecay(ctx context.Context, settings models.DecaySettings) (models.DecaySettings, error) {
	if m.UpdateDecayFunc != nil {
		return m.UpdateDecayFunc(ctx, settings)
	}
	m.decay = settings
	return settings, nil
}

func (m *mockSettingsService) UpdateExchange(ctx context.Context, settings models.ExchangeSettings) (models.ExchangeSettings, error) {
	if m.UpdateExchangeFunc != nil {
		return m.UpdateExchangeFunc(ctx, settings)
	}
	m.exchange = settings
	return settings, nil
}

type mockExchangeService struct {
	JoinFunc   func(ctx context.Context, userID uuid.UUID, params models.JoinQueueParams) (*models.QueueEntry, error)
	StatusFunc func(ctx context.Context, userID uuid.UUID) (*models.QueueEntry, error)
}

func (m *mockExchangeService) Join(ctx context.Context, userID uuid.UUID, params models.JoinQueueParams) (*models.QueueEntry, error) {
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, userID, params)
	}
	return &models.QueueEntry{ID: uuid.New(), UserID: userID}, nil
}

func (m *mockExchangeService) Status(ctx context.Context, userID uuid.UUID) (*models.QueueEntry, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID)
	}
	return nil, services.ErrNotQueued
}

type mockNotificationService struct {
	ListFunc        func(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error)
	MarkReadFunc    func(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllReadFunc func(ctx context.Context, userID uuid.UUID) error
	UnreadCountFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, params)
	}
	return nil, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, notificationID)
	}
	return nil
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return nil
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, nil
}

type mockReminderService struct {
	ForUserFunc func(ctx context.Context, user *models.User) ([]models.Reminder, error)
}

func (m *mockReminderService) ForUser(ctx context.Context, user *models.User) ([]models.Reminder, error) {
	if m.ForUserFunc != nil {
		return m.ForUserFunc(ctx, user)
	}
	return nil, nil
}

type mockFriendService struct {
	SearchUsersFunc         func(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error)
	SendRequestFunc         func(ctx context.Context, requester *models.User, friendID uuid.UUID) (*models.Friendship, error)
	AcceptRequestFunc       func(ctx context.Context, userID, friendshipID uuid.UUID) (*models.Friendship, error)
	RejectRequestFunc       func(ctx context.Context, userID, friendshipID uuid.UUID) error
	CancelRequestFunc       func(ctx context.Context, userID, friendshipID uuid.UUID) error
	RemoveFriendFunc        func(ctx context.Context, userID, friendshipID uuid.UUID) error
	ListFriendsFunc         func(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListPendingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListSentRequestsFunc    func(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
}

func (m *mockFriendService) SearchUsers(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error) {
	if m.SearchUsersFunc != nil {
		return m.SearchUsersFunc(ctx, currentUserID, query)
	}
	return nil, nil
}

func (m *mockFriendService) SendRequest(ctx context.Context, requester *models.User, friendID uuid.UUID) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requester, friendID)
	}
	return &models.Friendship{ID: uuid.New(), UserID: requester.ID, FriendID: friendID, Status: models.FriendshipStatusPending}, nil
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, userID, friendshipID uuid.UUID) (*models.Friendship, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, userID, friendshipID)
	}
	return &models.Friendship{ID: friendshipID, FriendID: userID, Status: models.FriendshipStatusAccepted}, nil
}

func (m *mockFriendService) RejectRequest(ctx context.Context, userID, friendshipID uuid.UUID) error {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, userID, friendshipID)
	}
	return nil
}

func (m *mockFriendService) CancelRequest(ctx context.Context, userID, friendshipID uuid.UUID) error {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, userID, friendshipID)
	}
	return nil
}

func (m *mockFriendService) RemoveFriend(ctx context.Context, userID, friendshipID uuid.UUID) error {
	if m.RemoveFriendFunc != nil {
		return m.RemoveFriendFunc(ctx, userID, friendshipID)
	}
	return nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	if m.ListPendingRequestsFunc != nil {
		return m.ListPendingRequestsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	if m.ListSentRequestsFunc != nil {
		return m.ListSentRequestsFunc(ctx, userID)
	}
	return nil, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
)

var (
	ErrFriendshipNotFound     = errors.New("friendship not found")
	ErrFriendshipExists       = errors.New("friendship already exists")
	ErrCannotFriendSelf       = errors.New("cannot send friend request to yourself")
	ErrFriendshipNotPending   = errors.New("friendship is not pending")
	ErrNotFriendshipRecipient = errors.New("only the recipient can accept or reject")
	ErrFriendUserNotFound     = errors.New("user to befriend does not exist")
)

const (
	friendshipColumns  = `id, user_id, friend_id, status, created_at, updated_at`
	friendshipFriendFK = "friendships_friend_id_fkey"
	minSearchLength    = 2
	maxSearchResults   = 20
)

// FriendNotifier is the part of NotificationService friendships depend on.
type FriendNotifier interface {
	NotifyFriendRequest(ctx context.Context, friendship *models.Friendship, requester *models.User) error
}

type FriendService struct {
	db       DB
	notifier FriendNotifier
	logger   *logging.Logger
}

func NewFriendService(db DB, notifier FriendNotifier, logger *logging.Logger) *FriendService {
	if logger == nil {
		logger = logging.Default
	}
	return &FriendService{db: db, notifier: notifier, logger: logger}
}

func scanFriendship(row Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	var status string
	if err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Status = models.FriendshipStatus(status)
	return f, nil
}

// SearchUsers finds other users by display name or email so they can be
// befriended.
func (s *FriendService) SearchUsers(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return []models.UserSummary{}, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := s.db.Query(ctx,
		`SELECT id, COALESCE(display_name, ''), COALESCE(email, '')
		 FROM users
		 WHERE id <> $1
		   AND (LOWER(display_name) LIKE $2 OR LOWER(email) LIKE $2)
		 ORDER BY display_name NULLS LAST, email
		 LIMIT $3`,
		currentUserID, pattern, maxSearchResults,
	)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	defer rows.Close()

	results := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return results, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// SendRequest asks friendID to become requester's friend and notifies them.
func (s *FriendService) SendRequest(ctx context.Context, requester *models.User, friendID uuid.UUID) (*models.Friendship, error) {
	if requester.ID == friendID {
		return nil, ErrCannotFriendSelf
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2)
			   OR (user_id = $2 AND friend_id = $1)
		)`,
		requester.ID, friendID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking friendship existence: %w", err)
	}
	if exists {
		return nil, ErrFriendshipExists
	}

	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`INSERT INTO friendships (user_id, friend_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+friendshipColumns,
		requester.ID, friendID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "23505":
				return nil, ErrFriendshipExists
			case pgErr.Code == "23503" && pgErr.ConstraintName == friendshipFriendFK:
				return nil, ErrFriendUserNotFound
			}
		}
		return nil, fmt.Errorf("creating friendship: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyFriendRequest(ctx, friendship, requester); err != nil {
			s.logger.Error("Failed to send friend request notification", logging.Fields{
				"friendship_id": friendship.ID.String(),
				"error":         err.Error(),
			})
		}
	}
	return friendship, nil
}

// AcceptRequest lets the addressee of a pending request accept it.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if !friendship.Involves(userID) {
		return nil, ErrFriendshipNotFound
	}
	if friendship.FriendID != userID {
		return nil, ErrNotFriendshipRecipient
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, ErrFriendshipNotPending
	}

	updated, err := scanFriendship(s.db.QueryRow(ctx,
		`UPDATE friendships
		 SET status = 'accepted', updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+friendshipColumns,
		friendshipID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friendship: %w", err)
	}
	return updated, nil
}

// RejectRequest lets the addressee of a pending request decline it.
func (s *FriendService) RejectRequest(ctx context.Context, userID, friendshipID uuid.UUID) error {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !friendship.Involves(userID) {
		return ErrFriendshipNotFound
	}
	if friendship.FriendID != userID {
		return ErrNotFriendshipRecipient
	}
	return s.deletePending(ctx, friendshipID, "rejecting friendship")
}

// CancelRequest lets the requester withdraw a pending request.
func (s *FriendService) CancelRequest(ctx context.Context, userID, friendshipID uuid.UUID) error {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if friendship.UserID != userID {
		return ErrFriendshipNotFound
	}
	return s.deletePending(ctx, friendshipID, "canceling friendship")
}

func (s *FriendService) deletePending(ctx context.Context, friendshipID uuid.UUID, action string) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM friendships WHERE id = $1 AND status = 'pending'",
		friendshipID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFriendshipNotPending
	}
	return nil
}

// RemoveFriend deletes a friendship. Either side may remove it.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendshipID uuid.UUID) error {
	friendship, err := s.getByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !friendship.Involves(userID) {
		return ErrFriendshipNotFound
	}

	tag, err := s.db.Exec(ctx, "DELETE FROM friendships WHERE id = $1", friendshipID)
	if err != nil {
		return fmt.Errorf("removing friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

// ListFriends returns accepted friendships with the other user's profile.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	return s.listWithUser(ctx, "listing friends",
		`SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at, f.updated_at,
		        u.id, COALESCE(u.display_name, ''), COALESCE(u.email, '')
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		 WHERE (f.user_id = $1 OR f.friend_id = $1) AND f.status = 'accepted'
		 ORDER BY u.display_name NULLS LAST, u.email`,
		userID,
	)
}

// ListPendingRequests returns requests waiting for userID to answer.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	return s.listWithUser(ctx, "listing pending requests",
		`SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at, f.updated_at,
		        u.id, COALESCE(u.display_name, ''), COALESCE(u.email, '')
		 FROM friendships f
		 JOIN users u ON u.id = f.user_id
		 WHERE f.friend_id = $1 AND f.status = 'pending'
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

// ListSentRequests returns requests userID sent that are still pending.
func (s *FriendService) ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	return s.listWithUser(ctx, "listing sent requests",
		`SELECT f.id, f.user_id, f.friend_id, f.status, f.created_at, f.updated_at,
		        u.id, COALESCE(u.display_name, ''), COALESCE(u.email, '')
		 FROM friendships f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1 AND f.status = 'pending'
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

func (s *FriendService) listWithUser(ctx context.Context, action, query string, userID uuid.UUID) ([]models.FriendWithUser, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer rows.Close()

	out := []models.FriendWithUser{}
	for rows.Next() {
		var f models.FriendWithUser
		var status string
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &status, &f.CreatedAt, &f.UpdatedAt,
			&f.Friend.ID, &f.Friend.DisplayName, &f.Friend.Email); err != nil {
			return nil, fmt.Errorf("%s: scanning: %w", action, err)
		}
		f.Status = models.FriendshipStatus(status)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return out, nil
}

func (s *FriendService) IsFriend(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	var isFriend bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
			  AND status = 'accepted'
		)`,
		userID, otherUserID,
	).Scan(&isFriend)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return isFriend, nil
}

func (s *FriendService) getByID(ctx context.Context, friendshipID uuid.UUID) (*models.Friendship, error) {
	friendship, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`,
		friendshipID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return friendship, nil
}

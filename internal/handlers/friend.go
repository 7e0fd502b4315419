package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type FriendHandler struct {
	friends services.FriendServiceInterface
}

func NewFriendHandler(friends services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friends: friends}
}

type SendFriendRequestRequest struct {
	FriendID string `json:"friend_id"`
}

type FriendshipResponse struct {
	Friendship *models.Friendship `json:"friendship,omitempty"`
	Message    string             `json:"message,omitempty"`
}

type FriendListResponse struct {
	Friends  []models.FriendWithUser `json:"friends"`
	Requests []models.FriendWithUser `json:"requests"`
	Sent     []models.FriendWithUser `json:"sent"`
}

type UserSearchResponse struct {
	Users []models.UserSummary `json:"users"`
}

func writeFriendError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, services.ErrFriendshipNotFound):
		writeError(w, http.StatusNotFound, "Friend request not found")
	case errors.Is(err, services.ErrNotFriendshipRecipient):
		writeError(w, http.StatusForbidden, "Only the recipient can answer this request")
	case errors.Is(err, services.ErrFriendshipNotPending):
		writeError(w, http.StatusBadRequest, "Request is not pending")
	default:
		logging.FromContext(r.Context()).Error("Error "+action+" friend request", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := r.URL.Query().Get("q")
	if len(strings.TrimSpace(query)) < 2 {
		writeJSON(w, http.StatusOK, UserSearchResponse{Users: []models.UserSummary{}})
		return
	}

	users, err := h.friends.SearchUsers(r.Context(), user.ID, query)
	if err != nil {
		logging.FromContext(r.Context()).Error("Error searching users", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, UserSearchResponse{Users: users})
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friend ID")
		return
	}

	friendship, err := h.friends.SendRequest(r.Context(), user, friendID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCannotFriendSelf):
			writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		case errors.Is(err, services.ErrFriendshipExists):
			writeError(w, http.StatusConflict, "Friend request already exists")
		case errors.Is(err, services.ErrFriendUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeFriendError(w, r, err, "sending")
		}
		return
	}

	writeJSON(w, http.StatusCreated, FriendshipResponse{
		Friendship: friendship,
		Message:    "Friend request sent",
	})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	friendship, err := h.friends.AcceptRequest(r.Context(), user.ID, friendshipID)
	if err != nil {
		writeFriendError(w, r, err, "accepting")
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{
		Friendship: friendship,
		Message:    "Friend request accepted",
	})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.friends.RejectRequest, "rejecting", "Friend request rejected")
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.friends.CancelRequest, "canceling", "Friend request canceled")
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendship ID")
		return
	}

	if err := h.friends.RemoveFriend(r.Context(), user.ID, friendshipID); err != nil {
		if errors.Is(err, services.ErrFriendshipNotFound) {
			writeError(w, http.StatusNotFound, "Friendship not found")
			return
		}
		writeFriendError(w, r, err, "removing")
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{Message: "Friend removed"})
}

// answer runs a delete-style action on the request named by the id path value.
func (h *FriendHandler) answer(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, friendshipID uuid.UUID) error, verb, message string) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := action(r.Context(), user.ID, friendshipID); err != nil {
		writeFriendError(w, r, err, verb)
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{Message: message})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.friends.ListFriends(r.Context(), user.ID)
	if err != nil {
		writeFriendError(w, r, err, "listing friends for")
		return
	}
	requests, err := h.friends.ListPendingRequests(r.Context(), user.ID)
	if err != nil {
		writeFriendError(w, r, err, "listing pending")
		return
	}
	sent, err := h.friends.ListSentRequests(r.Context(), user.ID)
	if err != nil {
		writeFriendError(w, r, err, "listing sent")
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{
		Friends:  nonNilFriends(friends),
		Requests: nonNilFriends(requests),
		Sent:     nonNilFriends(sent),
	})
}

func nonNilFriends(list []models.FriendWithUser) []models.FriendWithUser {
	if list == nil {
		return []models.FriendWithUser{}
	}
	return list
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
	"github.com/HammerMeetNail/timegift/internal/services"
)

// ExchangeHandler lets users enter the random exchange queue and see where
// their request stands.
type ExchangeHandler struct {
	exchange services.ExchangeServiceInterface
}

func NewExchangeHandler(exchange services.ExchangeServiceInterface) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange}
}

type JoinQueueRequest struct {
	TimeAmount     int                `json:"time_amount"`
	TimeUnit       models.TimeUnit    `json:"time_unit"`
	PurposeType    models.PurposeType `json:"purpose_type"`
	PurposeDetails *string            `json:"purpose_details,omitempty"`
}

type QueueResponse struct {
	Entry *models.QueueEntry `json:"entry"`
}

func (h *ExchangeHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req JoinQueueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.exchange.Join(r.Context(), user.ID, models.JoinQueueParams{
		TimeAmount:     req.TimeAmount,
		TimeUnit:       req.TimeUnit,
		PurposeType:    req.PurposeType,
		PurposeDetails: req.PurposeDetails,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAlreadyQueued):
		writeError(w, http.StatusConflict, "You are already waiting for a random exchange")
		return
	case isGiftValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		logging.FromContext(r.Context()).Error("Error joining random exchange", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, QueueResponse{Entry: entry})
}

func (h *ExchangeHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	entry, err := h.exchange.Status(r.Context(), user.ID)
	if errors.Is(err, services.ErrNotQueued) {
		writeError(w, http.StatusNotFound, "No random exchange request found")
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("Error getting random exchange status", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, QueueResponse{Entry: entry})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type GiftHandler struct {
	gifts services.GiftServiceInterface
}

func NewGiftHandler(gifts services.GiftServiceInterface) *GiftHandler {
	return &GiftHandler{gifts: gifts}
}

type CreateGiftRequest struct {
	RecipientID      *uuid.UUID         `json:"recipient_id,omitempty"`
	RecipientEmail   *string            `json:"recipient_email,omitempty"`
	RecipientPhone   *string            `json:"recipient_phone,omitempty"`
	Message          string             `json:"message"`
	TimeAmount       int                `json:"time_amount"`
	TimeUnit         models.TimeUnit    `json:"time_unit"`
	PurposeType      models.PurposeType `json:"purpose_type"`
	PurposeDetails   *string            `json:"purpose_details,omitempty"`
	AvailabilityData json.RawMessage    `json:"availability_data,omitempty"`
	ExpiryDate       *time.Time         `json:"expiry_date,omitempty"`
}

type ScheduleGiftRequest struct {
	ScheduledDateTime *time.Time `json:"scheduled_datetime,omitempty"`
}

type GiftResponse struct {
	Gift *models.Gift `json:"gift"`
}

type GiftListResponse struct {
	Gifts []*models.Gift `json:"gifts"`
}

var giftValidationErrors = []error{
	models.ErrMessageRequired,
	models.ErrInvalidTimeAmount,
	models.ErrTimeAmountTooLarge,
	models.ErrInvalidTimeUnit,
	models.ErrInvalidPurposeType,
	models.ErrPurposeDetails,
	models.ErrRecipientRequired,
	models.ErrInvalidRecipient,
	models.ErrUnknownRecipient,
	models.ErrExpiryInPast,
	models.ErrCannotGiftSelf,
}

func isGiftValidationError(err error) bool {
	for _, target := range giftValidationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeGiftError maps gift service errors to responses.
func writeGiftError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case isGiftValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrGiftNotFound):
		writeError(w, http.StatusNotFound, "Gift not found")
	case errors.Is(err, services.ErrNotGiftRecipient):
		writeError(w, http.StatusForbidden, "Only the recipient can do this")
	case errors.Is(err, services.ErrNotGiftParticipant):
		writeError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Gift cannot be "+action+" in its current status")
	case errors.Is(err, services.ErrGiftStateChanged):
		writeError(w, http.StatusConflict, "Gift was updated by someone else, please reload")
	case errors.Is(err, services.ErrGiftPastExpiry):
		writeError(w, http.StatusGone, "Gift has expired")
	case errors.Is(err, services.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, "Scheduled time must be in the future")
	default:
		logging.FromContext(r.Context()).Error("Gift request failed", logging.Fields{
			"action": action,
			"error":  err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *GiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateGiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	gift, err := h.gifts.Create(r.Context(), user, models.CreateGiftParams{
		RecipientID:      req.RecipientID,
		RecipientEmail:   req.RecipientEmail,
		RecipientPhone:   req.RecipientPhone,
		Message:          req.Message,
		TimeAmount:       req.TimeAmount,
		TimeUnit:         req.TimeUnit,
		PurposeType:      req.PurposeType,
		PurposeDetails:   req.PurposeDetails,
		AvailabilityData: req.AvailabilityData,
		ExpiryDate:       req.ExpiryDate,
	})
	if err != nil {
		writeGiftError(w, r, err, "created")
		return
	}

	writeJSON(w, http.StatusCreated, GiftResponse{Gift: gift})
}

func (h *GiftHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var gifts []*models.Gift
	var err error
	switch models.GiftBox(r.URL.Query().Get("box")) {
	case models.GiftBoxSent:
		gifts, err = h.gifts.ListSent(r.Context(), user.ID)
	case models.GiftBoxReceived, "":
		gifts, err = h.gifts.ListReceived(r.Context(), user)
	default:
		writeError(w, http.StatusBadRequest, "box must be sent or received")
		return
	}
	if err != nil {
		writeGiftError(w, r, err, "listed")
		return
	}
	if gifts == nil {
		gifts = []*models.Gift{}
	}

	writeJSON(w, http.StatusOK, GiftListResponse{Gifts: gifts})
}

func (h *GiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	giftID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gift ID")
		return
	}

	gift, err := h.gifts.Get(r.Context(), user, giftID)
	if err != nil {
		writeGiftError(w, r, err, "viewed")
		return
	}

	writeJSON(w, http.StatusOK, GiftResponse{Gift: gift})
}

func (h *GiftHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	giftID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gift ID")
		return
	}

	var req ScheduleGiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	gift, err := h.gifts.Accept(r.Context(), user, giftID, req.ScheduledDateTime)
	if err != nil {
		writeGiftError(w, r, err, "accepted")
		return
	}

	writeJSON(w, http.StatusOK, GiftResponse{Gift: gift})
}

func (h *GiftHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	giftID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gift ID")
		return
	}

	var req ScheduleGiftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScheduledDateTime == nil {
		writeError(w, http.StatusBadRequest, "scheduled_datetime is required")
		return
	}

	gift, err := h.gifts.Schedule(r.Context(), user, giftID, *req.ScheduledDateTime)
	if err != nil {
		writeGiftError(w, r, err, "scheduled")
		return
	}

	writeJSON(w, http.StatusOK, GiftResponse{Gift: gift})
}

func (h *GiftHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	giftID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gift ID")
		return
	}

	gift, err := h.gifts.Complete(r.Context(), user, giftID)
	if err != nil {
		writeGiftError(w, r, err, "completed")
		return
	}

	writeJSON(w, http.StatusOK, GiftResponse{Gift: gift})
}

package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/models"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type ReminderHandler struct {
	reminders services.ReminderServiceInterface
}

func NewReminderHandler(reminders services.ReminderServiceInterface) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

type RemindersResponse struct {
	Reminders []models.Reminder `json:"reminders"`
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reminders, err := h.reminders.ForUser(r.Context(), user)
	if err != nil {
		logging.FromContext(r.Context()).Error("Error loading reminders", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}

	writeJSON(w, http.StatusOK, RemindersResponse{Reminders: reminders})
}

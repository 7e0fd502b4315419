package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/services"
)

type SettingsHandler struct {
	settings services.SettingsServiceInterface
}

func NewSettingsHandler(settings services.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.All(r.Context()))
}

func (h *SettingsHandler) GetDecay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Decay(r.Context()))
}

// UpdateDecay applies the body over the current settings, so omitted keys
// keep their value.
func (h *SettingsHandler) UpdateDecay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.settings.Decay(ctx)
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.settings.UpdateDecay(ctx, settings)
	if errors.Is(err, services.ErrInvalidSettings) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logging.FromContext(ctx).Error("Error updating decay settings", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *SettingsHandler) GetExchange(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Exchange(r.Context()))
}

func (h *SettingsHandler) UpdateExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.settings.Exchange(ctx)
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.settings.UpdateExchange(ctx, settings)
	if err != nil {
		logging.FromContext(ctx).Error("Error updating random exchange settings", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

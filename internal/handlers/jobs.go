package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/timegift/internal/logging"
	"github.com/HammerMeetNail/timegift/internal/services"
)

// JobHandler exposes the batch jobs to an external scheduler.
type JobHandler struct {
	jobs services.JobRunner
}

func NewJobHandler(jobs services.JobRunner) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type DecayResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Processed int    `json:"processed"`
	Expired   int    `json:"expired"`
	Total     int    `json:"total"`
}

type RandomExchangeResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	MatchedPairs     int    `json:"matchedPairs"`
	RemainingInQueue int    `json:"remainingInQueue"`
}

func (h *JobHandler) Decay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.jobs.RunDecay(ctx)
	if errors.Is(err, services.ErrJobAlreadyRunning) {
		writeError(w, http.StatusConflict, "Time decay is already running")
		return
	}
	if err != nil {
		logging.FromContext(ctx).Error("Decay job failed", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to process time decay")
		return
	}
	if !result.Enabled {
		writeJSON(w, http.StatusOK, DecayResponse{Success: true, Message: "Time decay is disabled"})
		return
	}

	writeJSON(w, http.StatusOK, DecayResponse{
		Success:   true,
		Processed: result.Processed,
		Expired:   result.Expired,
		Total:     result.Total,
	})
}

func (h *JobHandler) RandomExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.jobs.RunExchange(ctx)
	if errors.Is(err, services.ErrJobAlreadyRunning) {
		writeError(w, http.StatusConflict, "Random exchange is already running")
		return
	}
	if err != nil {
		logging.FromContext(ctx).Error("Random exchange job failed", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to process random exchange")
		return
	}
	if !result.Enabled {
		writeJSON(w, http.StatusOK, RandomExchangeResponse{Success: true, Message: "Random exchange is disabled"})
		return
	}

	writeJSON(w, http.StatusOK, RandomExchangeResponse{
		Success:          true,
		MatchedPairs:     result.MatchedPairs,
		RemainingInQueue: result.RemainingInQueue,
	})
}

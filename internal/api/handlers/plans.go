package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/services"

	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

type ItineraryHandler struct {
	Planner  *services.Planner
	Schedule domain.ScheduleParams
	Logger   *zap.Logger
}

// Plan orders the requested stops and lays them out on the calendar.
// A route that cannot be computed is reported as 422 with the failed itinerary.
func (h *ItineraryHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	planReq, err := req.ToDomain(time.Now(), h.Schedule)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.Planner.PlanTrip(r.Context(), planReq)
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logging.OrNop(h.Logger).Error("plan trip failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusOK
	if it.Failed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, dto.NewItineraryResponse(it.Route, it.Elements, it.Failed))
}

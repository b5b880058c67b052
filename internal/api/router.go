package api

import (
	"net/http"
	"time"
	"trip-planner-service/internal/api/handlers"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/metrics"
	"trip-planner-service/internal/services"

	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner *services.Planner, schedule domain.ScheduleParams, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	itineraryHandler := &handlers.ItineraryHandler{
		Planner:  planner,
		Schedule: schedule,
		Logger:   logger,
	}

	healthHandler := &handlers.HealthHandler{Started: time.Now()}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/itineraries", itineraryHandler.Plan)
	mux.Handle("/metrics", metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux, logger))
}

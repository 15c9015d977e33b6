package controllers

import (
	"log/slog"
	"net/http"

	"waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/delivery/http/middleware"
)

// requireUser returns the authenticated user ID, writing 401 when there is none.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// requireEventID returns the eventID path value, writing 400 when it is empty.
func requireEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	return eventID, true
}

func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := helpers.WriteServiceError(w, err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "status", status, "err", err)
	}
}

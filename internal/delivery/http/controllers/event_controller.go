package controllers

import (
	"log/slog"
	"net/http"

	"waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/domain"
)

// SetEntrantLimitRequest is the request body for PUT /events/{eventID}/entrant-limit.
// A null entrant_limit clears the limit.
type SetEntrantLimitRequest struct {
	EntrantLimit *int `json:"entrant_limit"`
}

// Validate implements Validator.
func (s SetEntrantLimitRequest) Validate() []string {
	if s.EntrantLimit != nil && *s.EntrantLimit < 0 {
		return []string{"entrant_limit must be 0 or greater"}
	}
	return nil
}

// EventSuccessResponse is the success response envelope for event endpoints (200).
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// SetEntrantLimit godoc
// @Summary Set or clear an event's entrant limit
// @Description Sets the number of entrants the lottery may invite. null clears the limit; the lottery then refuses to run while pool replacement treats the event as unlimited. Organizer only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body SetEntrantLimitRequest true "New entrant limit"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/entrant-limit [put]
func (c *EventController) SetEntrantLimit(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	var req SetEntrantLimitRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	event, err := c.Service.SetEntrantLimit(r.Context(), eventID, userID, req.EntrantLimit)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

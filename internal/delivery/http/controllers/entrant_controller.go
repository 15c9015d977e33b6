package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/domain"
)

type EntrantController struct {
	Logger  *slog.Logger
	Service domain.EntrantService
	Events  domain.EventService
}

func NewEntrantController(logger *slog.Logger, svc domain.EntrantService, events domain.EventService) *EntrantController {
	return &EntrantController{
		Logger:  logger,
		Service: svc,
		Events:  events,
	}
}

// EntrantSuccessResponse is the success response envelope for single-entrant endpoints.
type EntrantSuccessResponse struct {
	Data  *domain.Entrant   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// JoinWaitingListRequest is the optional body for POST /events/{eventID}/waitlist.
// Latitude and longitude are given together or not at all.
type JoinWaitingListRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate implements helpers.Validator.
func (j JoinWaitingListRequest) Validate() []string {
	var errs []string
	if (j.Latitude == nil) != (j.Longitude == nil) {
		errs = append(errs, "latitude and longitude must be provided together")
	}
	if j.Latitude != nil && (*j.Latitude < -90 || *j.Latitude > 90) {
		errs = append(errs, "latitude must be between -90 and 90")
	}
	if j.Longitude != nil && (*j.Longitude < -180 || *j.Longitude > 180) {
		errs = append(errs, "longitude must be between -180 and 180")
	}
	return errs
}

func (j JoinWaitingListRequest) location() *domain.Location {
	if j.Latitude == nil || j.Longitude == nil {
		return nil
	}
	return &domain.Location{Latitude: *j.Latitude, Longitude: *j.Longitude}
}

// JoinWaitingList godoc
// @Summary Join an event's waiting list
// @Description Adds the authenticated user to the waiting list. The body is optional and may carry the join location.
// @Tags waitlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.JoinWaitingListRequest false "Join location"
// @Success 201 {object} controllers.EntrantSuccessResponse "data.status is WAITING"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already joined)"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/waitlist [post]
func (c *EntrantController) JoinWaitingList(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	var req JoinWaitingListRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ent, err := c.Service.JoinWaitingList(r.Context(), eventID, userID, req.location())
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ent)
}

// LeaveWaitingList godoc
// @Summary Leave an event's waiting list
// @Description Removes the authenticated user from the waiting list. Only entrants still waiting can leave.
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204 "Left the waiting list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/waitlist [delete]
func (c *EntrantController) LeaveWaitingList(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.LeaveWaitingList(r.Context(), eventID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptInvitation godoc
// @Summary Accept an invitation
// @Tags invitation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EntrantSuccessResponse "data.status is ACCEPTED"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not invited)"
// @Router /events/{eventID}/invitation/accept [post]
func (c *EntrantController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, c.Service.Accept)
}

// DeclineInvitation godoc
// @Summary Decline an invitation
// @Description Declining frees the seat for the next pool replacement.
// @Tags invitation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EntrantSuccessResponse "data.status is DECLINED"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not invited)"
// @Router /events/{eventID}/invitation/decline [post]
func (c *EntrantController) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, c.Service.Decline)
}

// respond runs fn for the authenticated entrant and writes the resulting status.
func (c *EntrantController) respond(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, eventID, entrantID string) (*domain.Entrant, error)) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ent, err := fn(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ent)
}

// CancelInvitation godoc
// @Summary Cancel an entrant's invitation
// @Description Withdraws an outstanding invitation. Organizer only. The seat can be refilled by pool replacement.
// @Tags invitation
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entrantID path string true "Entrant ID"
// @Success 200 {object} controllers.EntrantSuccessResponse "data.status is CANCELLED"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not invited)"
// @Router /events/{eventID}/entrants/{entrantID}/cancel [post]
func (c *EntrantController) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	entrantID := r.PathValue("entrantID")
	if entrantID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing entrantID")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ent, err := c.Service.Cancel(r.Context(), eventID, userID, entrantID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ent)
}

// GetMyStatus godoc
// @Summary Get the caller's status for an event
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EntrantSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (never joined)"
// @Router /events/{eventID}/entrants/me [get]
func (c *EntrantController) GetMyStatus(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, c.Service.GetStatus)
}

// ListEntrantsResponse is the response body for GET /events/{eventID}/entrants.
type ListEntrantsResponse struct {
	Status     domain.Status          `json:"status"`
	Entrants   []*domain.Entrant      `json:"entrants"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEntrantsSuccessResponse is the success response envelope for GET /events/{eventID}/entrants (200).
type ListEntrantsSuccessResponse struct {
	Data  ListEntrantsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListEntrants godoc
// @Summary List entrants in one status
// @Description Lists the entrants holding the given status, in join order. Organizer only. pagination.total is the bucket size.
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param status query string false "WAITING (default), INVITED, UNINVITED, ACCEPTED, DECLINED or CANCELLED"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, capped at 100)"
// @Success 200 {object} controllers.ListEntrantsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/entrants [get]
func (c *EntrantController) ListEntrants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	status := domain.StatusWaiting
	if q := query.Get("status"); q != "" {
		parsed, err := domain.ParseStatus(q)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		status = parsed
	}
	page, err := helpers.PageFromQuery(query)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if _, err := c.Events.AuthorizeOrganizer(r.Context(), eventID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}

	all, err := c.Service.ListEntrants(r.Context(), eventID, status)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	entrants, meta := helpers.Paginate(all, page)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEntrantsResponse{
		Status:     status,
		Entrants:   entrants,
		Pagination: meta,
	})
}

package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/domain"
)

// LotteryResultSuccessResponse is the success response envelope for the lottery endpoints (200).
type LotteryResultSuccessResponse struct {
	Data  *domain.LotteryResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type LotteryController struct {
	Logger  *slog.Logger
	Service domain.LotteryService
	Events  domain.EventService
}

func NewLotteryController(logger *slog.Logger, svc domain.LotteryService, events domain.EventService) *LotteryController {
	return &LotteryController{
		Logger:  logger,
		Service: svc,
		Events:  events,
	}
}

// run authorizes the organizer and writes the outcome of fn.
func (c *LotteryController) run(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, eventID string) (*domain.LotteryResult, error)) {
	eventID, ok := requireEventID(w, r)
	if !ok {
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
	res, err := fn(r.Context(), eventID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// Draw godoc
// @Summary Draw invitations for an event
// @Description Runs the initial lottery when none has run yet, otherwise fills vacated seats from the waiting list. Organizer only.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.LotteryResultSuccessResponse "data.outcome is lottery, pool or noop"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event has no entrant limit)"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/lottery/draw [post]
func (c *LotteryController) Draw(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.DrawOrPool)
}

// RunLottery godoc
// @Summary Run the full lottery
// @Description Shuffles the waiting list and invites up to the entrant limit; everyone else becomes uninvited. Organizer only.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.LotteryResultSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/lottery/run [post]
func (c *LotteryController) RunLottery(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.RunLottery)
}

// PoolReplacementAuto godoc
// @Summary Refill vacated seats
// @Description Invites as many waiting entrants as there are free seats under the entrant limit. Organizer only.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.LotteryResultSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/lottery/pool [post]
func (c *LotteryController) PoolReplacementAuto(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.PoolReplacementAuto)
}

// PoolReplacement godoc
// @Summary Invite a fixed number of replacements
// @Description Invites up to count waiting entrants at random. Organizer only.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param count path int true "Number of entrants to invite (> 0)"
// @Success 200 {object} controllers.LotteryResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/lottery/pool/{count} [post]
func (c *LotteryController) PoolReplacement(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("count"))
	if err != nil || n <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "count must be a positive integer")
		return
	}
	c.run(w, r, func(ctx context.Context, eventID string) (*domain.LotteryResult, error) {
		return c.Service.PoolReplacement(ctx, eventID, n)
	})
}

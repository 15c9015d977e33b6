package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"waitlistlottery/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// Every API route goes through requireAuth.
func NewRouter(
	lottery *controllers.LotteryController,
	entrants *controllers.EntrantController,
	events *controllers.EventController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Lottery (organizer)
	mux.HandleFunc("POST /events/{eventID}/lottery/draw", requireAuth(lottery.Draw))
	mux.HandleFunc("POST /events/{eventID}/lottery/run", requireAuth(lottery.RunLottery))
	mux.HandleFunc("POST /events/{eventID}/lottery/pool", requireAuth(lottery.PoolReplacementAuto))
	mux.HandleFunc("POST /events/{eventID}/lottery/pool/{count}", requireAuth(lottery.PoolReplacement))
	mux.HandleFunc("PUT /events/{eventID}/entrant-limit", requireAuth(events.SetEntrantLimit))

	// Waiting list
	mux.HandleFunc("POST /events/{eventID}/waitlist", requireAuth(entrants.JoinWaitingList))
	mux.HandleFunc("DELETE /events/{eventID}/waitlist", requireAuth(entrants.LeaveWaitingList))
	mux.HandleFunc("POST /events/{eventID}/invitation/accept", requireAuth(entrants.AcceptInvitation))
	mux.HandleFunc("POST /events/{eventID}/invitation/decline", requireAuth(entrants.DeclineInvitation))
	mux.HandleFunc("POST /events/{eventID}/entrants/{entrantID}/cancel", requireAuth(entrants.CancelInvitation))
	mux.HandleFunc("GET /events/{eventID}/entrants", requireAuth(entrants.ListEntrants))
	mux.HandleFunc("GET /events/{eventID}/entrants/me", requireAuth(entrants.GetMyStatus))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

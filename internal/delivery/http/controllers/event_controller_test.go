package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/delivery/http/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventController_SetEntrantLimit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		wantStatus int
		wantCode   string
		wantLimit  *int
	}{
		{name: "set limit", body: `{"entrant_limit": 25}`, userID: "org-1", wantStatus: http.StatusOK, wantLimit: func() *int { v := 25; return &v }()},
		{name: "clear limit", body: `{"entrant_limit": null}`, userID: "org-1", wantStatus: http.StatusOK},
		{name: "negative limit", body: `{"entrant_limit": -3}`, userID: "org-1", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "malformed body", body: `{"entrant_limit": "ten"}`, userID: "org-1", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "not organizer", body: `{"entrant_limit": 5}`, userID: "u1", wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
		{name: "unauthenticated", body: `{"entrant_limit": 5}`, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{organizers: map[string]string{"ev-1": "org-1"}}
			ctrl := NewEventController(testLogger, svc)
			req := httptest.NewRequest(http.MethodPut, "/events/ev-1/entrant-limit", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "ev-1")
			if tt.userID != "" {
				req = req.WithContext(middleware.SetUserID(req.Context(), tt.userID))
			}
			rr := httptest.NewRecorder()

			ctrl.SetEntrantLimit(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantCode != "" {
				var env helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}
			var resp EventSuccessResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			require.NotNil(t, resp.Data)
			assert.Equal(t, tt.wantLimit, resp.Data.EntrantLimit)
			assert.Equal(t, tt.wantLimit, svc.lastLimit)
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "waitlistlottery/internal/delivery/http/helpers"
	"waitlistlottery/internal/domain"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

var (
	errNoBearer  = errors.New("missing bearer token")
	errBadScheme = errors.New("authorization scheme must be Bearer")
)

// SetUserID returns ctx carrying the authenticated user ID. The same ID is the
// entrant ID and, for events they own, the organizer ID.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// bearerToken extracts <token> from "Authorization: Bearer <token>".
// The scheme is case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errNoBearer
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", errBadScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errNoBearer
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="waitlistlottery"`)
	h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
}

// RequireAuth wraps a handler so it only runs for a request with a valid bearer
// token. The token subject becomes the user ID in the request context.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			userID, err := verifier.Verify(token)
			if err == nil && userID == "" {
				err = errors.New("token has no subject")
			}
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"err", err,
				)
				unauthorized(w, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), userID)))
		}
	}
}

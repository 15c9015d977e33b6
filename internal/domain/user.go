package domain

import "time"

// TokenIssuer issues tokens (e.g. JWT) for an identified user or device.
type TokenIssuer interface {
	Issue(userID string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
// The same ID is used as entrant ID and organizer ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

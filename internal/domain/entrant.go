package domain

import "context"

// Entrant is one person's membership in one event's waiting list.
// The same person has an independent status per event.
type Entrant struct {
	EventID   string    `json:"event_id"`
	EntrantID string    `json:"entrant_id"`
	Status    Status    `json:"status"`
	Location  *Location `json:"location,omitempty"`
}

// EntrantService covers the single-entrant lifecycle: joining, leaving and
// answering or cancelling an invitation.
type EntrantService interface {
	JoinWaitingList(ctx context.Context, eventID, entrantID string, loc *Location) (*Entrant, error)
	LeaveWaitingList(ctx context.Context, eventID, entrantID string) error
	// Accept and Decline are entrant decisions on an INVITED membership.
	Accept(ctx context.Context, eventID, entrantID string) (*Entrant, error)
	Decline(ctx context.Context, eventID, entrantID string) (*Entrant, error)
	// Cancel is the organizer withdrawing an invitation.
	Cancel(ctx context.Context, eventID, organizerID, entrantID string) (*Entrant, error)
	GetStatus(ctx context.Context, eventID, entrantID string) (*Entrant, error)
	ListEntrants(ctx context.Context, eventID string, status Status) ([]*Entrant, error)
}

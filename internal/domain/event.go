package domain

import (
	"context"
	"math"
	"time"
)

// Event is the part of an event the waiting list cares about.
// EntrantLimit is nil when the organizer never set one.
type Event struct {
	ID           string    `json:"id"`
	OrganizerID  string    `json:"organizer_id"`
	EntrantLimit *int      `json:"entrant_limit"`
	LotteryRan   bool      `json:"lottery_ran"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Unlimited is the sentinel capacity used for "no limit" so arithmetic stays uniform.
const Unlimited = math.MaxInt

// Capacity is either unlimited or a fixed non-negative number of invitations.
type Capacity struct {
	limit     int
	unlimited bool
}

// UnlimitedCapacity returns the "no limit" capacity.
func UnlimitedCapacity() Capacity { return Capacity{limit: Unlimited, unlimited: true} }

// LimitedCapacity returns a capacity of n invitations.
func LimitedCapacity(n int) Capacity { return Capacity{limit: n} }

// CapacityFromLimit maps a stored entrantLimit to a capacity. An absent limit is
// unlimited. When zeroIsUnlimited is set, any limit <= 0 is unlimited too.
func CapacityFromLimit(limit *int, zeroIsUnlimited bool) Capacity {
	if limit == nil {
		return UnlimitedCapacity()
	}
	if zeroIsUnlimited && *limit <= 0 {
		return UnlimitedCapacity()
	}
	if *limit < 0 {
		return LimitedCapacity(0)
	}
	return LimitedCapacity(*limit)
}

func (c Capacity) IsUnlimited() bool { return c.unlimited }

// Limit returns the number of invitations, Unlimited for the unlimited capacity.
func (c Capacity) Limit() int { return c.limit }

// Remaining returns how many more entrants fit next to invited ones.
func (c Capacity) Remaining(invited int) int {
	if c.limit <= invited {
		return 0
	}
	return c.limit - invited
}

// EventRepository stores the event fields the waiting list needs.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	SetEntrantLimit(ctx context.Context, eventID string, limit *int) (*Event, error)
}

// EventService exposes organizer operations on an event's waiting list settings.
type EventService interface {
	// AuthorizeOrganizer returns ErrForbidden unless organizerID owns the event.
	AuthorizeOrganizer(ctx context.Context, eventID, organizerID string) (*Event, error)
	// SetEntrantLimit sets (or clears with nil) the event's entrant limit.
	SetEntrantLimit(ctx context.Context, eventID, organizerID string, limit *int) (*Event, error)
}

package domain

import (
	"fmt"
	"strings"
)

// Status is the bucket an entrant occupies for one event.
type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusInvited   Status = "INVITED"
	StatusUninvited Status = "UNINVITED"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every bucket in lifecycle order.
var AllStatuses = []Status{
	StatusWaiting,
	StatusInvited,
	StatusUninvited,
	StatusAccepted,
	StatusDeclined,
	StatusCancelled,
}

// transitions holds the only legal moves. Anything missing is a caller error.
var transitions = map[Status][]Status{
	StatusWaiting: {StatusInvited, StatusUninvited},
	StatusInvited: {StatusAccepted, StatusDeclined, StatusCancelled},
}

// ParseStatus accepts a bucket name in any letter case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// Valid reports whether s is one of the six buckets.
func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReplenishmentEligible reports whether the move vacates invited capacity
// that a pool replacement may refill.
func ReplenishmentEligible(from, to Status) bool {
	return from == StatusInvited && (to == StatusDeclined || to == StatusCancelled)
}

// Transition returns the two path writes of a status change: delete at the old
// bucket, marker at the new one. The caller bundles them into a single Update.
// Prior membership is not checked; deleting an absent path is a no-op.
func Transition(eventID, entrantID string, from, to Status, marker *Marker) ([]Write, error) {
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if marker == nil {
		marker = &Marker{}
	}
	return []Write{
		{Path: Path{EventID: eventID, Bucket: from, EntrantID: entrantID}},
		{Path: Path{EventID: eventID, Bucket: to, EntrantID: entrantID}, Marker: marker},
	}, nil
}

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services, repositories and controllers.
var (
	// ErrNotFound is returned when an event or an entrant membership does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is not allowed to act on the event.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned for arguments rejected before any store call
	// (empty event or entrant id, non-positive pool size, negative limit).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a status change is not a legal transition
	// or the entrant is not in the bucket the transition starts from.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyJoined is returned when an entrant already holds a status for the event.
	ErrAlreadyJoined = errors.New("entrant already joined")

	// ErrDoubleMembership is returned by a store when a commit would leave an
	// entrant in two buckets of the same event.
	ErrDoubleMembership = errors.New("entrant would hold two statuses")

	// ErrReadFailure wraps any failed store read. No write is issued after it.
	ErrReadFailure = errors.New("store read failed")

	// ErrWriteFailure wraps a failed atomic commit. The store state is unchanged.
	ErrWriteFailure = errors.New("store write failed")
)

// ErrMissingEntrantLimit is a configuration error: the event has no entrantLimit
// where one is required. It is a ReadFailure variant.
var ErrMissingEntrantLimit = fmt.Errorf("%w: missing entrant limit", ErrReadFailure)

// ReadFailure wraps err as an ErrReadFailure for the named read.
func ReadFailure(what string, err error) error {
	return fmt.Errorf("%w: read %s: %w", ErrReadFailure, what, err)
}

// WriteFailure wraps err as an ErrWriteFailure.
func WriteFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrWriteFailure, err)
}

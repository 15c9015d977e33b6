package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"waitlistlottery/internal/domain"
)

type entrantService struct {
	eventRepo      domain.EventRepository
	events         domain.EventService
	store          domain.StatusStore
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEntrantService creates the entrant-facing side of the waiting list.
func NewEntrantService(
	eventRepo domain.EventRepository,
	events domain.EventService,
	store domain.StatusStore,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EntrantService {
	return &entrantService{
		eventRepo:      eventRepo,
		events:         events,
		store:          store,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func requireIDs(eventID, entrantID string) error {
	if eventID == "" || entrantID == "" {
		return fmt.Errorf("%w: event id and entrant id are required", domain.ErrInvalidInput)
	}
	return nil
}

func validateLocation(loc *domain.Location) error {
	if loc == nil {
		return nil
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("%w: location out of range", domain.ErrInvalidInput)
	}
	return nil
}

func (s *entrantService) JoinWaitingList(ctx context.Context, eventID, entrantID string, loc *domain.Location) (*domain.Entrant, error) {
	if err := requireIDs(eventID, entrantID); err != nil {
		return nil, err
	}
	if err := validateLocation(loc); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Ensure the event exists.
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	current, _, err := s.find(ctx, eventID, entrantID)
	if err != nil {
		return nil, err
	}
	if current != "" {
		return nil, fmt.Errorf("%w: entrant is %s", domain.ErrAlreadyJoined, current)
	}

	marker := &domain.Marker{Location: loc}
	u := domain.NewUpdate(eventID)
	u.Add(domain.Write{Path: domain.Path{EventID: eventID, Bucket: domain.StatusWaiting, EntrantID: entrantID}, Marker: marker})
	if err := s.store.Commit(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDoubleMembership) {
			return nil, domain.ErrAlreadyJoined
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.WriteFailure(err)
	}
	s.logger.InfoContext(ctx, "entrant joined waiting list", "event_id", eventID, "entrant_id", entrantID)
	return &domain.Entrant{EventID: eventID, EntrantID: entrantID, Status: domain.StatusWaiting, Location: loc}, nil
}

func (s *entrantService) LeaveWaitingList(ctx context.Context, eventID, entrantID string) error {
	if err := requireIDs(eventID, entrantID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	path := domain.Path{EventID: eventID, Bucket: domain.StatusWaiting, EntrantID: entrantID}
	m, err := s.store.ReadEntry(ctx, path)
	if err != nil {
		return domain.ReadFailure("waiting entry", err)
	}
	if m == nil {
		return domain.ErrNotFound
	}
	u := domain.NewUpdate(eventID)
	u.Add(domain.Write{Path: path})
	if err := s.store.Commit(ctx, u); err != nil {
		return domain.WriteFailure(err)
	}
	s.logger.InfoContext(ctx, "entrant left waiting list", "event_id", eventID, "entrant_id", entrantID)
	return nil
}

func (s *entrantService) Accept(ctx context.Context, eventID, entrantID string) (*domain.Entrant, error) {
	if err := requireIDs(eventID, entrantID); err != nil {
		return nil, err
	}
	return s.move(ctx, eventID, entrantID, domain.StatusInvited, domain.StatusAccepted)
}

func (s *entrantService) Decline(ctx context.Context, eventID, entrantID string) (*domain.Entrant, error) {
	if err := requireIDs(eventID, entrantID); err != nil {
		return nil, err
	}
	return s.move(ctx, eventID, entrantID, domain.StatusInvited, domain.StatusDeclined)
}

// Cancel withdraws an outstanding invitation on the organizer's behalf.
func (s *entrantService) Cancel(ctx context.Context, eventID, organizerID, entrantID string) (*domain.Entrant, error) {
	if err := requireIDs(eventID, entrantID); err != nil {
		return nil, err
	}
	if _, err := s.events.AuthorizeOrganizer(ctx, eventID, organizerID); err != nil {
		return nil, err
	}
	return s.move(ctx, eventID, entrantID, domain.StatusInvited, domain.StatusCancelled)
}

func (s *entrantService) GetStatus(ctx context.Context, eventID, entrantID string) (*domain.Entrant, error) {
	if err := requireIDs(eventID, entrantID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	status, marker, err := s.find(ctx, eventID, entrantID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return nil, domain.ErrNotFound
	}
	return &domain.Entrant{EventID: eventID, EntrantID: entrantID, Status: status, Location: marker.Location}, nil
}

func (s *entrantService) ListEntrants(ctx context.Context, eventID string, status domain.Status) ([]*domain.Entrant, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.store.ReadBucket(ctx, eventID, status)
	if err != nil {
		return nil, domain.ReadFailure(string(status)+" list", err)
	}
	out := make([]*domain.Entrant, 0, len(entries))
	for _, e := range entries {
		ent := &domain.Entrant{EventID: eventID, EntrantID: e.EntrantID, Status: status}
		if e.Marker != nil {
			ent.Location = e.Marker.Location
		}
		out = append(out, ent)
	}
	return out, nil
}

// move applies one lifecycle transition for a single entrant, carrying the marker along.
func (s *entrantService) move(ctx context.Context, eventID, entrantID string, from, to domain.Status) (*domain.Entrant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	marker, err := s.store.ReadEntry(ctx, domain.Path{EventID: eventID, Bucket: from, EntrantID: entrantID})
	if err != nil {
		return nil, domain.ReadFailure(string(from)+" entry", err)
	}
	if marker == nil {
		current, _, err := s.find(ctx, eventID, entrantID)
		if err != nil {
			return nil, err
		}
		if current == "" {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: entrant is %s, not %s", domain.ErrInvalidTransition, current, from)
	}

	writes, err := domain.Transition(eventID, entrantID, from, to, marker)
	if err != nil {
		return nil, err
	}
	u := domain.NewUpdate(eventID)
	u.Add(writes...)
	if err := s.store.Commit(ctx, u); err != nil {
		return nil, domain.WriteFailure(err)
	}

	log := s.logger.With("event_id", eventID, "entrant_id", entrantID, "from", from, "to", to)
	if domain.ReplenishmentEligible(from, to) {
		log.InfoContext(ctx, "invitation vacated, seat can be refilled by pool replacement")
	} else {
		log.InfoContext(ctx, "entrant status changed")
	}
	return &domain.Entrant{EventID: eventID, EntrantID: entrantID, Status: to, Location: marker.Location}, nil
}

// find probes every bucket for the entrant. An empty status means the entrant is unknown.
func (s *entrantService) find(ctx context.Context, eventID, entrantID string) (domain.Status, *domain.Marker, error) {
	for _, st := range domain.AllStatuses {
		m, err := s.store.ReadEntry(ctx, domain.Path{EventID: eventID, Bucket: st, EntrantID: entrantID})
		if err != nil {
			return "", nil, domain.ReadFailure(string(st)+" entry", err)
		}
		if m != nil {
			return st, m, nil
		}
	}
	return "", nil, nil
}

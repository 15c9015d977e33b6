package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waitlistlottery/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) AuthorizeOrganizer(ctx context.Context, eventID, organizerID string) (*domain.Event, error) {
	if eventID == "" || organizerID == "" {
		return nil, fmt.Errorf("%w: event id and organizer id are required", domain.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// SetEntrantLimit sets or clears (nil) the event's entrant limit. Only the organizer may change it.
func (s *eventService) SetEntrantLimit(ctx context.Context, eventID, organizerID string, limit *int) (*domain.Event, error) {
	if limit != nil && *limit < 0 {
		return nil, fmt.Errorf("%w: entrant limit must not be negative", domain.ErrInvalidInput)
	}
	if _, err := s.AuthorizeOrganizer(ctx, eventID, organizerID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	event, err := s.eventRepo.SetEntrantLimit(ctx, eventID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("set entrant limit: %w", err)
	}
	return event, nil
}

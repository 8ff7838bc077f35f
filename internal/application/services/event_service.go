package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// EventService handles calendar operations
type EventService struct {
	eventRepo ports.EventRepository
	logger    *logger.Logger
}

// NewEventService creates a new event service
func NewEventService(eventRepo ports.EventRepository, logger *logger.Logger) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		logger:    logger.WithComponent("events"),
	}
}

// CreateEvent creates a calendar event. The end must not precede the start.
func (s *EventService) CreateEvent(ctx context.Context, userID uuid.UUID, req ports.CreateEventRequest) (*entities.CalendarEvent, error) {
	event := &entities.CalendarEvent{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
		Attendees:   req.Attendees,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Infow("Event created", "event_id", event.ID, "user_id", userID, "start_time", event.StartTime)
	return event, nil
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(ctx context.Context, userID uuid.UUID, id int64) (*entities.CalendarEvent, error) {
	return s.eventRepo.GetByID(ctx, userID, id)
}

// DeleteEvent deletes an event
func (s *EventService) DeleteEvent(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.eventRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Infow("Event deleted", "event_id", id, "user_id", userID)
	return nil
}

// ListEvents lists events ordered by start time
func (s *EventService) ListEvents(ctx context.Context, userID uuid.UUID, filter ports.EventFilter) ([]*entities.CalendarEvent, error) {
	if filter.StartAfter != nil && filter.EndBefore != nil && filter.EndBefore.Before(*filter.StartAfter) {
		return nil, entities.ErrInvalidTimeRange
	}

	events, err := s.eventRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

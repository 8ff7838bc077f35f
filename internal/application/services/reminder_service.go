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

// ReminderService handles dated reminders
type ReminderService struct {
	reminderRepo ports.ReminderRepository
	logger       *logger.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(reminderRepo ports.ReminderRepository, logger *logger.Logger) *ReminderService {
	return &ReminderService{
		reminderRepo: reminderRepo,
		logger:       logger.WithComponent("reminders"),
	}
}

// CreateReminder stores a pending reminder
func (s *ReminderService) CreateReminder(ctx context.Context, userID uuid.UUID, req ports.CreateReminderRequest) (*entities.Reminder, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, entities.Invalid("message is required")
	}

	reminder := &entities.Reminder{
		UserID:       userID,
		Message:      message,
		ReminderTime: req.ReminderTime,
		Status:       entities.ReminderStatusPending,
	}
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.logger.Infow("Reminder created", "reminder_id", reminder.ID, "user_id", userID, "reminder_time", reminder.ReminderTime)
	return reminder, nil
}

// GetReminder retrieves a reminder by ID
func (s *ReminderService) GetReminder(ctx context.Context, userID uuid.UUID, id int64) (*entities.Reminder, error) {
	return s.reminderRepo.GetByID(ctx, userID, id)
}

// ListReminders lists reminders by reminder time, optionally by status
func (s *ReminderService) ListReminders(ctx context.Context, userID uuid.UUID, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, entities.Invalid("invalid status %q", *filter.Status)
	}

	reminders, err := s.reminderRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

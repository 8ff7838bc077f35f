package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// NotificationService persists notifications and pushes them to connected clients
type NotificationService struct {
	repo     ports.NotificationRepository
	notifier ports.Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewNotificationService creates a new notification service. notifier may be nil.
func NewNotificationService(repo ports.NotificationRepository, notifier ports.Notifier, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		notifier: notifier,
		logger:   logger.WithComponent("notifications"),
		now:      time.Now,
	}
}

// Publish stores the notification and then attempts live delivery. A failed
// push is logged; the stored notification is still returned.
func (s *NotificationService) Publish(ctx context.Context, userID uuid.UUID, message string) (*entities.Notification, error) {
	n := &entities.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warnw("Live notification delivery failed",
				"notification_id", n.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}

	return n, nil
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page ports.Page) ([]*entities.Notification, error) {
	out, err := s.repo.List(ctx, userID, unreadOnly, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

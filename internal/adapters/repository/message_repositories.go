package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// EmailLogRepositoryImpl implements the EmailLogRepository interface
type EmailLogRepositoryImpl struct {
	db *sqlx.DB
}

// NewEmailLogRepository creates a new email log repository
func NewEmailLogRepository(db *sqlx.DB) ports.EmailLogRepository {
	return &EmailLogRepositoryImpl{db: db}
}

func (r *EmailLogRepositoryImpl) Create(ctx context.Context, log *entities.EmailLog) error {
	query := `
		INSERT INTO email_logs (user_id, recipient, subject, body, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		log.UserID, log.Recipient, log.Subject, log.Body, log.Status, log.SentAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("create email log: %w", err)
	}

	return nil
}

func (r *EmailLogRepositoryImpl) List(ctx context.Context, userID uuid.UUID, page ports.Page) ([]*entities.EmailLog, error) {
	page = page.Normalize()
	query := `
		SELECT id, user_id, recipient, subject, body, status, sent_at
		FROM email_logs
		WHERE user_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	logs := []*entities.EmailLog{}
	if err := r.db.SelectContext(ctx, &logs, query, userID, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}

	return logs, nil
}

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *entities.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message, is_read)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Message, n.IsRead).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page ports.Page) ([]*entities.Notification, error) {
	page = page.Normalize()
	query := `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	notifications := []*entities.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, unreadOnly, page.Limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}

	return nil
}

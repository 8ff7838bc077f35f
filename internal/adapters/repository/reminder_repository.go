package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const reminderColumns = `id, user_id, message, reminder_time, status, created_at`

// ReminderRepositoryImpl implements the ReminderRepository interface
type ReminderRepositoryImpl struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sqlx.DB) ports.ReminderRepository {
	return &ReminderRepositoryImpl{db: db}
}

func (r *ReminderRepositoryImpl) Create(ctx context.Context, reminder *entities.Reminder) error {
	if reminder.Status == "" {
		reminder.Status = entities.ReminderStatusPending
	}

	query := `
		INSERT INTO reminders (user_id, message, reminder_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reminder.UserID, reminder.Message, reminder.ReminderTime, reminder.Status,
	).Scan(&reminder.ID, &reminder.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}

	return nil
}

func (r *ReminderRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1 AND user_id = $2`

	var reminder entities.Reminder
	err := r.db.GetContext(ctx, &reminder, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder by id: %w", err)
	}

	return &reminder, nil
}

func (r *ReminderRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`
		SELECT %s
		FROM reminders
		WHERE %s
		ORDER BY reminder_time ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		reminderColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset)

	reminders := []*entities.Reminder{}
	if err := r.db.SelectContext(ctx, &reminders, query, args...); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	return reminders, nil
}

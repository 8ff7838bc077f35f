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

const eventColumns = `id, user_id, title, start_time, end_time, description, attendees, created_at`

// EventRepositoryImpl implements the EventRepository interface
type EventRepositoryImpl struct {
	db *sqlx.DB
}

// NewEventRepository creates a new calendar event repository
func NewEventRepository(db *sqlx.DB) ports.EventRepository {
	return &EventRepositoryImpl{db: db}
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *entities.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (user_id, title, start_time, end_time, description, attendees)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.UserID, event.Title, event.StartTime, event.EndTime, event.Description, event.Attendees,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	return nil
}

func (r *EventRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.CalendarEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE id = $1 AND user_id = $2`

	var event entities.CalendarEvent
	err := r.db.GetContext(ctx, &event, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	query := `DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter ports.EventFilter) ([]*entities.CalendarEvent, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if filter.StartAfter != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", argIndex))
		args = append(args, *filter.StartAfter)
		argIndex++
	}

	if filter.EndBefore != nil {
		conditions = append(conditions, fmt.Sprintf("end_time <= $%d", argIndex))
		args = append(args, *filter.EndBefore)
		argIndex++
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`
		SELECT %s
		FROM calendar_events
		WHERE %s
		ORDER BY start_time ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		eventColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset)

	events := []*entities.CalendarEvent{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

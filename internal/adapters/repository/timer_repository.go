package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const timerColumns = `id, user_id, kind, duration_seconds, trigger_time, label, status, is_notified, created_at, completed_at`

// TimerRepositoryImpl implements the TimerRepository interface.
// Status transitions are single guarded UPDATE statements, so the sweep and a
// user cancel racing on the same row cannot both succeed.
type TimerRepositoryImpl struct {
	db *sqlx.DB
}

// NewTimerRepository creates a new timer repository
func NewTimerRepository(db *sqlx.DB) ports.TimerRepository {
	return &TimerRepositoryImpl{db: db}
}

func (r *TimerRepositoryImpl) Create(ctx context.Context, timer *entities.Timer) error {
	query := `
		INSERT INTO timers (user_id, kind, duration_seconds, trigger_time, label, status, is_notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		timer.UserID, timer.Kind, timer.DurationSeconds, timer.TriggerTime, timer.Label,
		timer.Status, timer.IsNotified,
	).Scan(&timer.ID, &timer.CreatedAt)
	if err != nil {
		return fmt.Errorf("create timer: %w", err)
	}

	return nil
}

func (r *TimerRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error) {
	query := `SELECT ` + timerColumns + ` FROM timers WHERE id = $1 AND user_id = $2`

	var timer entities.Timer
	err := r.db.GetContext(ctx, &timer, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTimerNotFound
		}
		return nil, fmt.Errorf("get timer by id: %w", err)
	}

	return &timer, nil
}

func (r *TimerRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter ports.TimerFilter) ([]*entities.Timer, error) {
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
		FROM timers
		WHERE %s
		ORDER BY trigger_time ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		timerColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset)

	timers := []*entities.Timer{}
	if err := r.db.SelectContext(ctx, &timers, query, args...); err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}

	return timers, nil
}

func (r *TimerRepositoryImpl) Cancel(ctx context.Context, userID uuid.UUID, id int64, at time.Time) (*entities.Timer, error) {
	query := `
		UPDATE timers
		SET status = 'cancelled', completed_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		RETURNING ` + timerColumns

	var timer entities.Timer
	err := r.db.GetContext(ctx, &timer, query, id, userID, at)
	if err == nil {
		return &timer, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cancel timer: %w", err)
	}

	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	return nil, entities.ErrTimerNotActive
}

func (r *TimerRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.Timer, error) {
	if limit <= 0 {
		limit = ports.DefaultPageLimit
	}

	query := `
		SELECT ` + timerColumns + `
		FROM timers
		WHERE status = 'active' AND is_notified = FALSE AND trigger_time <= $1
		ORDER BY trigger_time ASC, id ASC
		LIMIT $2`

	timers := []*entities.Timer{}
	if err := r.db.SelectContext(ctx, &timers, query, now, limit); err != nil {
		return nil, fmt.Errorf("list due timers: %w", err)
	}

	return timers, nil
}

func (r *TimerRepositoryImpl) MarkFired(ctx context.Context, id int64, at time.Time) (*entities.Timer, error) {
	query := `
		UPDATE timers
		SET status = 'completed', is_notified = TRUE, completed_at = $2
		WHERE id = $1 AND status = 'active' AND is_notified = FALSE
		RETURNING ` + timerColumns

	var timer entities.Timer
	err := r.db.GetContext(ctx, &timer, query, id, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTimerNotActive
		}
		return nil, fmt.Errorf("mark timer fired: %w", err)
	}

	return &timer, nil
}

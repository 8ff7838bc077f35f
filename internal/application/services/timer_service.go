package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// ErrAlarmInPast is returned when an alarm is set for a time that has already passed
var ErrAlarmInPast error = &entities.ValidationError{Msg: "trigger_time must be in the future"}

// TimerService handles countdown timers and alarms
type TimerService struct {
	timerRepo ports.TimerRepository
	logger    *logger.Logger
	now       func() time.Time
}

// NewTimerService creates a new timer service
func NewTimerService(timerRepo ports.TimerRepository, logger *logger.Logger) *TimerService {
	return &TimerService{
		timerRepo: timerRepo,
		logger:    logger.WithComponent("timers"),
		now:       time.Now,
	}
}

// SetTimer starts a countdown that triggers duration seconds from now
func (s *TimerService) SetTimer(ctx context.Context, userID uuid.UUID, req ports.SetTimerRequest) (*entities.Timer, error) {
	if req.DurationSeconds <= 0 {
		return nil, entities.ErrInvalidDuration
	}

	duration := req.DurationSeconds
	timer := &entities.Timer{
		UserID:          userID,
		Kind:            entities.TimerKindTimer,
		DurationSeconds: &duration,
		TriggerTime:     s.now().Add(time.Duration(duration) * time.Second).UTC(),
		Label:           trimLabel(req.Label),
		Status:          entities.TimerStatusActive,
	}

	if err := s.timerRepo.Create(ctx, timer); err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}

	s.logger.Infow("Timer set", "timer_id", timer.ID, "user_id", userID, "trigger_time", timer.TriggerTime)
	return timer, nil
}

// SetAlarm schedules an alarm at an absolute time
func (s *TimerService) SetAlarm(ctx context.Context, userID uuid.UUID, req ports.SetAlarmRequest) (*entities.Timer, error) {
	if req.TriggerTime.IsZero() {
		return nil, entities.Invalid("trigger_time is required")
	}
	if !req.TriggerTime.After(s.now()) {
		return nil, ErrAlarmInPast
	}

	timer := &entities.Timer{
		UserID:      userID,
		Kind:        entities.TimerKindAlarm,
		TriggerTime: req.TriggerTime.UTC(),
		Label:       trimLabel(req.Label),
		Status:      entities.TimerStatusActive,
	}

	if err := s.timerRepo.Create(ctx, timer); err != nil {
		return nil, fmt.Errorf("failed to create alarm: %w", err)
	}

	s.logger.Infow("Alarm set", "timer_id", timer.ID, "user_id", userID, "trigger_time", timer.TriggerTime)
	return timer, nil
}

// GetTimer retrieves a timer by ID
func (s *TimerService) GetTimer(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error) {
	return s.timerRepo.GetByID(ctx, userID, id)
}

// ListTimers lists the user's timers
func (s *TimerService) ListTimers(ctx context.Context, userID uuid.UUID, filter ports.TimerFilter) ([]*entities.Timer, error) {
	timers, err := s.timerRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list timers: %w", err)
	}
	return timers, nil
}

// CancelTimer cancels an active timer. A timer the sweep already fired
// reports ErrTimerNotActive.
func (s *TimerService) CancelTimer(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error) {
	timer, err := s.timerRepo.Cancel(ctx, userID, id, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Timer cancelled", "timer_id", id, "user_id", userID)
	return timer, nil
}

func trimLabel(label *string) *string {
	if label == nil {
		return nil
	}
	l := strings.TrimSpace(*label)
	if l == "" {
		return nil
	}
	return &l
}

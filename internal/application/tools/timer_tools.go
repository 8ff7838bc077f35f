package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

type setTimerParams struct {
	DurationSeconds int     `json:"duration_seconds" validate:"required,gt=0,max=2592000"`
	Label           *string `json:"label" validate:"omitempty,max=200"`
}

type setAlarmParams struct {
	TriggerTime time.Time `json:"trigger_time" validate:"required"`
	Label       *string   `json:"label" validate:"omitempty,max=200"`
}

type listTimersParams struct {
	Status string `json:"status" validate:"omitempty,oneof=active completed cancelled"`
}

type timerIDParams struct {
	TimerID int64 `json:"timer_id" validate:"required,gt=0"`
}

func timerTools(timers ports.TimerService) []*Tool {
	return []*Tool{
		Define("set_timer",
			"Start a countdown timer. Convert minutes or hours to seconds.",
			object(props(
				"duration_seconds", integer("Timer length in seconds, e.g. 300 for five minutes"),
				"label", str("Optional short label, e.g. 'pasta'"),
			), "duration_seconds"),
			func(ctx context.Context, userID uuid.UUID, p *setTimerParams) (map[string]any, error) {
				timer, err := timers.SetTimer(ctx, userID, ports.SetTimerRequest{
					DurationSeconds: p.DurationSeconds,
					Label:           p.Label,
				})
				if err != nil {
					return nil, err
				}
				return timerView(timer), nil
			}),

		Define("set_alarm",
			"Set an alarm for a specific date and time",
			object(props(
				"trigger_time", str("When the alarm goes off, ISO format (YYYY-MM-DDTHH:MM:SS)"),
				"label", str("Optional short label"),
			), "trigger_time"),
			func(ctx context.Context, userID uuid.UUID, p *setAlarmParams) (map[string]any, error) {
				timer, err := timers.SetAlarm(ctx, userID, ports.SetAlarmRequest{
					TriggerTime: p.TriggerTime,
					Label:       p.Label,
				})
				if err != nil {
					return nil, err
				}
				return timerView(timer), nil
			}),

		Define("list_timers",
			"List timers and alarms",
			object(props(
				"status", enum("Only return timers with this status", "active", "completed", "cancelled"),
			)),
			func(ctx context.Context, userID uuid.UUID, p *listTimersParams) (map[string]any, error) {
				var filter ports.TimerFilter
				if p.Status != "" {
					status := entities.TimerStatus(p.Status)
					filter.Status = &status
				}
				list, err := timers.ListTimers(ctx, userID, filter)
				if err != nil {
					return nil, err
				}
				return map[string]any{"timers": views(list, timerView), "count": len(list)}, nil
			}),

		Define("cancel_timer",
			"Cancel an active timer or alarm by ID",
			object(props(
				"timer_id", integer("Timer ID"),
			), "timer_id"),
			func(ctx context.Context, userID uuid.UUID, p *timerIDParams) (map[string]any, error) {
				timer, err := timers.CancelTimer(ctx, userID, p.TimerID)
				if err != nil {
					return nil, err
				}
				return timerView(timer), nil
			}),
	}
}

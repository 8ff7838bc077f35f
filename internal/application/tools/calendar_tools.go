package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/ports"
)

type createEventParams struct {
	Title       string    `json:"title" validate:"required,max=500"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Attendees   *string   `json:"attendees" validate:"omitempty,max=2000"`
}

type listEventsParams struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type eventIDParams struct {
	EventID int64 `json:"event_id" validate:"required,gt=0"`
}

func calendarTools(events ports.EventService) []*Tool {
	return []*Tool{
		Define("create_event",
			"Create a calendar event",
			object(props(
				"title", str("Event title"),
				"start_time", str("Start time in ISO format"),
				"end_time", str("End time in ISO format"),
				"description", str("Event description"),
				"attendees", str("Comma-separated attendee names or emails"),
			), "title", "start_time", "end_time"),
			func(ctx context.Context, userID uuid.UUID, p *createEventParams) (map[string]any, error) {
				event, err := events.CreateEvent(ctx, userID, ports.CreateEventRequest{
					Title:       p.Title,
					StartTime:   p.StartTime,
					EndTime:     p.EndTime,
					Description: p.Description,
					Attendees:   p.Attendees,
				})
				if err != nil {
					return nil, err
				}
				return eventView(event), nil
			}),

		Define("list_events",
			"List calendar events",
			object(props(
				"start_date", str("Filter from date (ISO format)"),
				"end_date", str("Filter to date (ISO format)"),
			)),
			func(ctx context.Context, userID uuid.UUID, p *listEventsParams) (map[string]any, error) {
				filter := ports.EventFilter{StartAfter: p.StartDate, EndBefore: endOfDay(p.EndDate)}
				list, err := events.ListEvents(ctx, userID, filter)
				if err != nil {
					return nil, err
				}
				return map[string]any{"events": views(list, eventView), "count": len(list)}, nil
			}),

		Define("delete_event",
			"Delete a calendar event by ID",
			object(props(
				"event_id", integer("Event ID"),
			), "event_id"),
			func(ctx context.Context, userID uuid.UUID, p *eventIDParams) (map[string]any, error) {
				if err := events.DeleteEvent(ctx, userID, p.EventID); err != nil {
					return nil, err
				}
				return deleted(p.EventID, "Event deleted"), nil
			}),
	}
}

// endOfDay widens a bare date (midnight) to cover the whole day, so
// end_date=2026-05-04 includes events on the 4th.
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if h, m, s := t.Clock(); h != 0 || m != 0 || s != 0 || t.Nanosecond() != 0 {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

package tools

import (
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
)

// notePreviewLen bounds note content echoed back to the model
const notePreviewLen = 50

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= notePreviewLen {
		return s
	}
	return string(r[:notePreviewLen])
}

func taskView(t *entities.Task) map[string]any {
	m := map[string]any{
		"id":       t.ID,
		"title":    t.Title,
		"status":   string(t.Status),
		"priority": string(t.Priority),
	}
	if t.DueDate != nil {
		m["due_date"] = formatTime(*t.DueDate)
	}
	if t.CompletedAt != nil {
		m["completed_at"] = formatTime(*t.CompletedAt)
	}
	return m
}

func eventView(e *entities.CalendarEvent) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"title":      e.Title,
		"start_time": formatTime(e.StartTime),
		"end_time":   formatTime(e.EndTime),
	}
}

func noteView(n *entities.Note) map[string]any {
	m := map[string]any{
		"id":      n.ID,
		"content": preview(n.Content),
	}
	if n.Tags != nil {
		m["tags"] = *n.Tags
	}
	return m
}

func timerView(t *entities.Timer) map[string]any {
	m := map[string]any{
		"id":           t.ID,
		"kind":         string(t.Kind),
		"trigger_time": formatTime(t.TriggerTime),
		"status":       string(t.Status),
	}
	if t.Label != nil {
		m["label"] = *t.Label
	}
	if t.DurationSeconds != nil {
		m["duration_seconds"] = *t.DurationSeconds
	}
	return m
}

func views[T any](items []T, view func(T) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, view(it))
	}
	return out
}

func deleted(id int64, message string) map[string]any {
	return map[string]any{"id": id, "deleted": true, "message": message}
}

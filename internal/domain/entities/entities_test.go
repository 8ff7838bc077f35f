package entities

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create task: %w", Invalid("invalid priority %q", "urgent"))

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "create task: invalid priority \"urgent\"", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, `invalid priority "urgent"`, ve.Msg)

	assert.False(t, errors.Is(ErrTaskNotFound, ErrValidation))
}

func TestTaskApplyStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	task := &Task{Status: TaskStatusPending}

	task.ApplyStatus(TaskStatusCompleted, now)
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, &now, task.CompletedAt)

	// same status keeps the original timestamp
	task.ApplyStatus(TaskStatusCompleted, now.Add(time.Hour))
	assert.Equal(t, now, *task.CompletedAt)

	task.ApplyStatus(TaskStatusPending, now)
	assert.Nil(t, task.CompletedAt)
}

func TestEventValidate(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, (&CalendarEvent{StartTime: start, EndTime: start}).Validate())
	assert.ErrorIs(t, (&CalendarEvent{StartTime: start, EndTime: start.Add(-time.Minute)}).Validate(), ErrInvalidTimeRange)
}

func TestNoteTags(t *testing.T) {
	tags := " work, , Meetings ,"
	note := &Note{Tags: &tags}

	assert.Equal(t, []string{"work", "Meetings"}, note.TagList())
	assert.True(t, note.HasAnyTag([]string{"meetings"}))
	assert.False(t, note.HasAnyTag([]string{"home"}))
	assert.Nil(t, (&Note{}).TagList())
}

func TestTimerIsDue(t *testing.T) {
	now := time.Now()
	label := "tea"
	timer := &Timer{Status: TimerStatusActive, TriggerTime: now, Label: &label}

	assert.True(t, timer.IsDue(now))
	assert.False(t, timer.IsDue(now.Add(-time.Second)))
	assert.Equal(t, "⏰ Timer finished: tea", timer.NotificationMessage())

	timer.IsNotified = true
	assert.False(t, timer.IsDue(now))

	assert.Equal(t, "⏰ Timer finished!", (&Timer{}).NotificationMessage())
}

func TestReminderStatusValid(t *testing.T) {
	assert.True(t, ReminderStatusPending.Valid())
	assert.True(t, ReminderStatusCancelled.Valid())
	assert.False(t, ReminderStatus("snoozed").Valid())
}

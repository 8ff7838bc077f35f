package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrNoteNotFound         = errors.New("note not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrTimerNotFound        = errors.New("timer not found")
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailExists          = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInactiveUser         = errors.New("account is inactive")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrTaskNotPending       = errors.New("task is not pending")
	ErrTimerNotActive       = errors.New("timer is not active")
	ErrInvalidTimeRange     = errors.New("end_time must not be before start_time")
	ErrInvalidDuration      = errors.New("duration_seconds must be positive")

	// ErrValidation matches every ValidationError
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports input rejected by a business rule. Its message is
// safe to show to the caller.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Enums and types
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

type TimerKind string

const (
	TimerKindTimer TimerKind = "timer"
	TimerKindAlarm TimerKind = "alarm"
)

type TimerStatus string

const (
	TimerStatusActive    TimerStatus = "active"
	TimerStatusCompleted TimerStatus = "completed"
	TimerStatusCancelled TimerStatus = "cancelled"
)

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusCompleted ReminderStatus = "completed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// Valid reports whether s is a known reminder status
func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusCompleted, ReminderStatusCancelled:
		return true
	}
	return false
}

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// User represents an account holder. Users are soft-disabled, never deleted.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Task represents a todo item owned by a single user
type Task struct {
	ID          int64        `json:"id" db:"id"`
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description *string      `json:"description" db:"description"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Status      TaskStatus   `json:"status" db:"status"`
	DueDate     *time.Time   `json:"due_date" db:"due_date"`
	CompletedAt *time.Time   `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Note represents a free-form note with optional comma-delimited tags
type Note struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	Tags      *string   `json:"tags" db:"tags"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CalendarEvent represents a scheduled event
type CalendarEvent struct {
	ID          int64     `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	Description *string   `json:"description" db:"description"`
	Attendees   *string   `json:"attendees" db:"attendees"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Reminder is a dated message the user asked to be reminded of
type Reminder struct {
	ID           int64          `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	Message      string         `json:"message" db:"message"`
	ReminderTime time.Time      `json:"reminder_time" db:"reminder_time"`
	Status       ReminderStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// Timer represents either a countdown timer or a wall-clock alarm.
type Timer struct {
	ID              int64       `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	Kind            TimerKind   `json:"kind" db:"kind"`
	DurationSeconds *int        `json:"duration_seconds" db:"duration_seconds"`
	TriggerTime     time.Time   `json:"trigger_time" db:"trigger_time"`
	Label           *string     `json:"label" db:"label"`
	Status          TimerStatus `json:"status" db:"status"`
	IsNotified      bool        `json:"is_notified" db:"is_notified"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at" db:"completed_at"`
}

// EmailLog records one delivery attempt. It is never updated.
type EmailLog struct {
	ID        int64       `json:"id" db:"id"`
	UserID    *uuid.UUID  `json:"user_id" db:"user_id"`
	Recipient string      `json:"recipient" db:"recipient"`
	Subject   string      `json:"subject" db:"subject"`
	Body      string      `json:"body" db:"body"`
	Status    EmailStatus `json:"status" db:"status"`
	SentAt    time.Time   `json:"sent_at" db:"sent_at"`
}

// Notification is a message delivered to a user, currently emitted by timer expiry
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Business logic methods for Task

// IsValidPriority reports whether p is one of the known priorities
func IsValidPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// IsValidTaskStatus reports whether s is one of the known task statuses
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// ApplyStatus changes the task status keeping completed_at consistent with it.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	if t.Status == status {
		return
	}
	t.Status = status
	if status == TaskStatusCompleted {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
}

// Business logic methods for CalendarEvent

// Validate checks the event time range
func (e *CalendarEvent) Validate() error {
	if e.EndTime.Before(e.StartTime) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Business logic methods for Note

// TagList splits the delimited tag string into trimmed, non-empty tags
func (n *Note) TagList() []string {
	if n.Tags == nil {
		return nil
	}
	return SplitTags(*n.Tags)
}

// HasAnyTag reports whether the note carries at least one of the given tags (case-insensitive)
func (n *Note) HasAnyTag(tags []string) bool {
	for _, have := range n.TagList() {
		for _, want := range tags {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// SplitTags parses a comma-delimited tag list
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Business logic methods for Timer

// IsDue reports whether the timer should be fired by the expiry sweep at now
func (t *Timer) IsDue(now time.Time) bool {
	return t.Status == TimerStatusActive && !t.IsNotified && !t.TriggerTime.After(now)
}

// NotificationMessage is the text delivered when the timer expires
func (t *Timer) NotificationMessage() string {
	if t.Label != nil && *t.Label != "" {
		return "⏰ Timer finished: " + *t.Label
	}
	return "⏰ Timer finished!"
}

package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/assistant/internal/domain/entities"
)

// Every owned-entity method takes the acting user's id and filters on it.
// A row owned by another user is reported with the same not-found error as a
// missing row.

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	// Complete moves a pending task to completed. It returns ErrTaskNotPending
	// when the owned task exists but is no longer pending.
	Complete(ctx context.Context, userID uuid.UUID, id int64, at time.Time) (*entities.Task, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
}

// NoteRepository defines the interface for note data operations
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Note, error)
	Update(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID, filter NoteFilter) ([]*entities.Note, error)
	Search(ctx context.Context, userID uuid.UUID, query string, tags []string) ([]*entities.Note, error)
}

// EventRepository defines the interface for calendar event data operations
type EventRepository interface {
	Create(ctx context.Context, event *entities.CalendarEvent) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.CalendarEvent, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID, filter EventFilter) ([]*entities.CalendarEvent, error)
}

// TimerRepository defines the interface for timer and alarm data operations
type TimerRepository interface {
	Create(ctx context.Context, timer *entities.Timer) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Timer, error)
	List(ctx context.Context, userID uuid.UUID, filter TimerFilter) ([]*entities.Timer, error)
	// Cancel moves an active owned timer to cancelled. It returns
	// ErrTimerNotActive when the timer exists but has already left active.
	Cancel(ctx context.Context, userID uuid.UUID, id int64, at time.Time) (*entities.Timer, error)
	// ListDue returns active, un-notified timers whose trigger time is at or before now, across all users.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.Timer, error)
	// MarkFired performs the compare-and-set active -> completed transition.
	// It returns ErrTimerNotActive if another writer got there first.
	MarkFired(ctx context.Context, id int64, at time.Time) (*entities.Timer, error)
}

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *entities.Reminder) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Reminder, error)
	// List orders reminders by reminder_time, earliest first.
	List(ctx context.Context, userID uuid.UUID, filter ReminderFilter) ([]*entities.Reminder, error)
}

// EmailLogRepository defines the interface for email log persistence
type EmailLogRepository interface {
	Create(ctx context.Context, log *entities.EmailLog) error
	List(ctx context.Context, userID uuid.UUID, page Page) ([]*entities.EmailLog, error)
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page Page) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

// AuthRepository defines the interface for refresh token persistence
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	// RotateRefreshToken revokes oldHash and stores newHash in one step. It
	// fails with ErrInvalidToken, changing nothing, when oldHash is unknown,
	// already revoked or owned by another user.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations.
// Values are stored as JSON.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

// Repositories bundles one implementation of every repository port
type Repositories struct {
	Users         UserRepository
	Auth          AuthRepository
	Tasks         TaskRepository
	Notes         NoteRepository
	Events        EventRepository
	Timers        TimerRepository
	Reminders     ReminderRepository
	EmailLogs     EmailLogRepository
	Notifications NotificationRepository
}

// Filter types for repository queries

// Page bounds a list query. Zero Limit means the repository default.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageLimit is applied when a Page has no limit
const DefaultPageLimit = 100

// Normalize returns the page with defaults applied
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 1000 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type TaskFilter struct {
	Status *entities.TaskStatus
	Page
}

type NoteFilter struct {
	Page
}

type EventFilter struct {
	StartAfter *time.Time
	EndBefore  *time.Time
	Page
}

type TimerFilter struct {
	Status *entities.TimerStatus
	Page
}

type ReminderFilter struct {
	Status *entities.ReminderStatus
	Page
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int64      `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}

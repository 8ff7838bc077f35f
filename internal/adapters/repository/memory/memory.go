// Package memory provides in-process implementations of the repository ports.
// They back the "memory" database driver for local development and the unit
// tests of every layer above the repositories.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// Store holds every table behind a single lock. Each row is copied on the
// way in and on the way out so callers never share memory with the store.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]entities.User
	refreshTokens map[string]ports.RefreshToken
	tasks         map[int64]entities.Task
	notes         map[int64]entities.Note
	events        map[int64]entities.CalendarEvent
	timers        map[int64]entities.Timer
	reminders     map[int64]entities.Reminder
	emailLogs     []entities.EmailLog
	notifications map[uuid.UUID]entities.Notification

	seq int64
	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]entities.User),
		refreshTokens: make(map[string]ports.RefreshToken),
		tasks:         make(map[int64]entities.Task),
		notes:         make(map[int64]entities.Note),
		events:        make(map[int64]entities.CalendarEvent),
		timers:        make(map[int64]entities.Timer),
		reminders:     make(map[int64]entities.Reminder),
		notifications: make(map[uuid.UUID]entities.Notification),
		now:           time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func paginate[T any](items []T, page ports.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

// Users

type userRepository struct{ s *Store }

// NewUserRepository returns a UserRepository backed by s
func NewUserRepository(s *Store) ports.UserRepository { return &userRepository{s: s} }

func (r *userRepository) Create(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return entities.ErrEmailExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *userRepository) Update(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return entities.ErrEmailExists
		}
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.IsActive = active
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

// Refresh tokens

// errDuplicateToken mirrors the unique constraint on refresh_tokens.token_hash
var errDuplicateToken = errors.New("refresh token hash already exists")

type authRepository struct{ s *Store }

// NewAuthRepository returns an AuthRepository backed by s
func NewAuthRepository(s *Store) ports.AuthRepository { return &authRepository{s: s} }

func (r *authRepository) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.refreshTokens[tokenHash]; exists {
		return errDuplicateToken
	}

	r.s.refreshTokens[tokenHash] = ports.RefreshToken{
		ID:        r.s.nextID(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: r.s.now(),
	}
	return nil
}

func (r *authRepository) GetRefreshToken(_ context.Context, tokenHash string) (*ports.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.refreshTokens[tokenHash]
	if !ok {
		return nil, entities.ErrInvalidToken
	}
	return &t, nil
}

func (r *authRepository) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.refreshTokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return entities.ErrInvalidToken
	}
	now := r.s.now()
	t.RevokedAt = &now
	r.s.refreshTokens[tokenHash] = t
	return nil
}

func (r *authRepository) RotateRefreshToken(_ context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.refreshTokens[oldHash]
	if !ok || old.RevokedAt != nil || old.UserID != userID {
		return entities.ErrInvalidToken
	}
	if _, exists := r.s.refreshTokens[newHash]; exists {
		return errDuplicateToken
	}

	now := r.s.now()
	old.RevokedAt = &now
	r.s.refreshTokens[oldHash] = old
	r.s.refreshTokens[newHash] = ports.RefreshToken{
		ID:        r.s.nextID(),
		UserID:    userID,
		TokenHash: newHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	return nil
}

func (r *authRepository) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for h, t := range r.s.refreshTokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.s.refreshTokens[h] = t
		}
	}
	return nil
}

func (r *authRepository) CleanupExpiredTokens(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for h, t := range r.s.refreshTokens {
		if now.After(t.ExpiresAt) {
			delete(r.s.refreshTokens, h)
		}
	}
	return nil
}

// Tasks

type taskRepository struct{ s *Store }

// NewTaskRepository returns a TaskRepository backed by s
func NewTaskRepository(s *Store) ports.TaskRepository { return &taskRepository{s: s} }

func (r *taskRepository) Create(_ context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	task.ID = r.s.nextID()
	now := r.s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepository) get(userID uuid.UUID, id int64) (entities.Task, bool) {
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return entities.Task{}, false
	}
	return t, true
}

func (r *taskRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.get(userID, id)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return &t, nil
}

func (r *taskRepository) Update(_ context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.get(task.UserID, task.ID); !ok {
		return entities.ErrTaskNotFound
	}
	task.UpdatedAt = r.s.now()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepository) Complete(_ context.Context, userID uuid.UUID, id int64, at time.Time) (*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.get(userID, id)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	if t.Status != entities.TaskStatusPending {
		return nil, entities.ErrTaskNotPending
	}
	t.Status = entities.TaskStatusCompleted
	t.CompletedAt = &at
	t.UpdatedAt = at
	r.s.tasks[id] = t
	return &t, nil
}

func (r *taskRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.get(userID, id); !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepository) List(_ context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.Task
	for _, t := range r.s.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		t := t
		out = append(out, &t)
	}
	// newest first, matching the SQL implementation
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Page), nil
}

// Notes

type noteRepository struct{ s *Store }

// NewNoteRepository returns a NoteRepository backed by s
func NewNoteRepository(s *Store) ports.NoteRepository { return &noteRepository{s: s} }

func (r *noteRepository) Create(_ context.Context, note *entities.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	note.ID = r.s.nextID()
	now := r.s.now()
	note.CreatedAt, note.UpdatedAt = now, now
	r.s.notes[note.ID] = *note
	return nil
}

func (r *noteRepository) get(userID uuid.UUID, id int64) (entities.Note, bool) {
	n, ok := r.s.notes[id]
	if !ok || n.UserID != userID {
		return entities.Note{}, false
	}
	return n, true
}

func (r *noteRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.get(userID, id)
	if !ok {
		return nil, entities.ErrNoteNotFound
	}
	return &n, nil
}

func (r *noteRepository) Update(_ context.Context, note *entities.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.get(note.UserID, note.ID); !ok {
		return entities.ErrNoteNotFound
	}
	note.UpdatedAt = r.s.now()
	r.s.notes[note.ID] = *note
	return nil
}

func (r *noteRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.get(userID, id); !ok {
		return entities.ErrNoteNotFound
	}
	delete(r.s.notes, id)
	return nil
}

func (r *noteRepository) collect(userID uuid.UUID, keep func(entities.Note) bool) []*entities.Note {
	var out []*entities.Note
	for _, n := range r.s.notes {
		if n.UserID != userID || !keep(n) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *noteRepository) List(_ context.Context, userID uuid.UUID, filter ports.NoteFilter) ([]*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return paginate(r.collect(userID, func(entities.Note) bool { return true }), filter.Page), nil
}

func (r *noteRepository) Search(_ context.Context, userID uuid.UUID, query string, tags []string) ([]*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if query == "" && len(tags) == 0 {
		return []*entities.Note{}, nil
	}
	q := strings.ToLower(query)
	out := r.collect(userID, func(n entities.Note) bool {
		if q != "" && strings.Contains(strings.ToLower(n.Content), q) {
			return true
		}
		return len(tags) > 0 && n.HasAnyTag(tags)
	})
	return paginate(out, ports.Page{}), nil
}

// Calendar events

type eventRepository struct{ s *Store }

// NewEventRepository returns an EventRepository backed by s
func NewEventRepository(s *Store) ports.EventRepository { return &eventRepository{s: s} }

func (r *eventRepository) Create(_ context.Context, event *entities.CalendarEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = r.s.nextID()
	event.CreatedAt = r.s.now()
	r.s.events[event.ID] = *event
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.CalendarEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok || e.UserID != userID {
		return nil, entities.ErrEventNotFound
	}
	return &e, nil
}

func (r *eventRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[id]
	if !ok || e.UserID != userID {
		return entities.ErrEventNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r *eventRepository) List(_ context.Context, userID uuid.UUID, filter ports.EventFilter) ([]*entities.CalendarEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.CalendarEvent
	for _, e := range r.s.events {
		if e.UserID != userID {
			continue
		}
		if filter.StartAfter != nil && e.StartTime.Before(*filter.StartAfter) {
			continue
		}
		if filter.EndBefore != nil && e.EndTime.After(*filter.EndBefore) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return paginate(out, filter.Page), nil
}

// Reminders

type reminderRepository struct{ s *Store }

// NewReminderRepository returns a ReminderRepository backed by s
func NewReminderRepository(s *Store) ports.ReminderRepository { return &reminderRepository{s: s} }

func (r *reminderRepository) Create(_ context.Context, reminder *entities.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reminder.ID = r.s.nextID()
	if reminder.Status == "" {
		reminder.Status = entities.ReminderStatusPending
	}
	reminder.CreatedAt = r.s.now()
	r.s.reminders[reminder.ID] = *reminder
	return nil
}

func (r *reminderRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rem, ok := r.s.reminders[id]
	if !ok || rem.UserID != userID {
		return nil, entities.ErrReminderNotFound
	}
	return &rem, nil
}

func (r *reminderRepository) List(_ context.Context, userID uuid.UUID, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.Reminder
	for _, rem := range r.s.reminders {
		if rem.UserID != userID || (filter.Status != nil && rem.Status != *filter.Status) {
			continue
		}
		rem := rem
		out = append(out, &rem)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReminderTime.Equal(out[j].ReminderTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ReminderTime.Before(out[j].ReminderTime)
	})
	return paginate(out, filter.Page), nil
}

// Timers

type timerRepository struct{ s *Store }

// NewTimerRepository returns a TimerRepository backed by s
func NewTimerRepository(s *Store) ports.TimerRepository { return &timerRepository{s: s} }

func (r *timerRepository) Create(_ context.Context, timer *entities.Timer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	timer.ID = r.s.nextID()
	timer.CreatedAt = r.s.now()
	r.s.timers[timer.ID] = *timer
	return nil
}

func (r *timerRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.Timer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.timers[id]
	if !ok || t.UserID != userID {
		return nil, entities.ErrTimerNotFound
	}
	return &t, nil
}

func sortTimers(out []*entities.Timer) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].TriggerTime.Equal(out[j].TriggerTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].TriggerTime.Before(out[j].TriggerTime)
	})
}

func (r *timerRepository) List(_ context.Context, userID uuid.UUID, filter ports.TimerFilter) ([]*entities.Timer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.Timer
	for _, t := range r.s.timers {
		if t.UserID != userID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sortTimers(out)
	return paginate(out, filter.Page), nil
}

func (r *timerRepository) Cancel(_ context.Context, userID uuid.UUID, id int64, at time.Time) (*entities.Timer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.timers[id]
	if !ok || t.UserID != userID {
		return nil, entities.ErrTimerNotFound
	}
	if t.Status != entities.TimerStatusActive {
		return nil, entities.ErrTimerNotActive
	}
	t.Status = entities.TimerStatusCancelled
	t.CompletedAt = &at
	r.s.timers[id] = t
	return &t, nil
}

func (r *timerRepository) ListDue(_ context.Context, now time.Time, limit int) ([]*entities.Timer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if limit <= 0 {
		limit = ports.DefaultPageLimit
	}
	var out []*entities.Timer
	for _, t := range r.s.timers {
		if t.IsDue(now) {
			t := t
			out = append(out, &t)
		}
	}
	sortTimers(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *timerRepository) MarkFired(_ context.Context, id int64, at time.Time) (*entities.Timer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.timers[id]
	if !ok || t.Status != entities.TimerStatusActive || t.IsNotified {
		return nil, entities.ErrTimerNotActive
	}
	t.Status = entities.TimerStatusCompleted
	t.IsNotified = true
	t.CompletedAt = &at
	r.s.timers[id] = t
	return &t, nil
}

// Email logs

type emailLogRepository struct{ s *Store }

// NewEmailLogRepository returns an EmailLogRepository backed by s
func NewEmailLogRepository(s *Store) ports.EmailLogRepository { return &emailLogRepository{s: s} }

func (r *emailLogRepository) Create(_ context.Context, log *entities.EmailLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	log.ID = r.s.nextID()
	if log.SentAt.IsZero() {
		log.SentAt = r.s.now()
	}
	r.s.emailLogs = append(r.s.emailLogs, *log)
	return nil
}

func (r *emailLogRepository) List(_ context.Context, userID uuid.UUID, page ports.Page) ([]*entities.EmailLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.EmailLog
	for i := len(r.s.emailLogs) - 1; i >= 0; i-- {
		l := r.s.emailLogs[i]
		if l.UserID == nil || *l.UserID != userID {
			continue
		}
		out = append(out, &l)
	}
	return paginate(out, page), nil
}

// Notifications

type notificationRepository struct{ s *Store }

// NewNotificationRepository returns a NotificationRepository backed by s
func NewNotificationRepository(s *Store) ports.NotificationRepository {
	return &notificationRepository{s: s}
}

func (r *notificationRepository) Create(_ context.Context, n *entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = r.s.now()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepository) List(_ context.Context, userID uuid.UUID, unreadOnly bool, page ports.Page) ([]*entities.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entities.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		n := n
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *notificationRepository) MarkRead(_ context.Context, userID uuid.UUID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return entities.ErrNotificationNotFound
	}
	n.IsRead = true
	r.s.notifications[id] = n
	return nil
}

// New creates a fresh store and wraps it in every repository
func New() *ports.Repositories {
	s := NewStore()
	return &ports.Repositories{
		Users:         NewUserRepository(s),
		Auth:          NewAuthRepository(s),
		Tasks:         NewTaskRepository(s),
		Notes:         NewNoteRepository(s),
		Events:        NewEventRepository(s),
		Timers:        NewTimerRepository(s),
		Reminders:     NewReminderRepository(s),
		EmailLogs:     NewEmailLogRepository(s),
		Notifications: NewNotificationRepository(s),
	}
}

// Package repotest is a compliance suite shared by every implementation of
// the repository ports. Each implementation's tests call Run with a factory
// returning a clean, isolated set of repositories.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// Run exercises the full compliance suite
func Run(t *testing.T, makeRepos func(t *testing.T) *ports.Repositories) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, makeRepos(t)) })
	t.Run("RefreshTokens", func(t *testing.T) { testRefreshTokens(t, makeRepos(t)) })
	t.Run("RefreshTokenRotation", func(t *testing.T) { testRefreshTokenRotation(t, makeRepos(t)) })
	t.Run("Tasks", func(t *testing.T) { testTasks(t, makeRepos(t)) })
	t.Run("TaskCompletion", func(t *testing.T) { testTaskCompletion(t, makeRepos(t)) })
	t.Run("Notes", func(t *testing.T) { testNotes(t, makeRepos(t)) })
	t.Run("NoteSearch", func(t *testing.T) { testNoteSearch(t, makeRepos(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, makeRepos(t)) })
	t.Run("Timers", func(t *testing.T) { testTimers(t, makeRepos(t)) })
	t.Run("Reminders", func(t *testing.T) { testReminders(t, makeRepos(t)) })
	t.Run("TimerCancelRacesFire", func(t *testing.T) { testTimerRace(t, makeRepos(t)) })
	t.Run("EmailLogs", func(t *testing.T) { testEmailLogs(t, makeRepos(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, makeRepos(t)) })
}

func newUser(t *testing.T, repos *ports.Repositories) uuid.UUID {
	t.Helper()
	id := uuid.New()
	u := &entities.User{
		ID:           id,
		Name:         "user " + id.String()[:8],
		Email:        id.String() + "@example.test",
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return id
}

func strPtr(s string) *string { return &s }

func testUsers(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	id := newUser(t, repos)

	got, err := repos.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	byEmail, err := repos.Users.GetByEmail(ctx, got.Email)
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	dup := &entities.User{Name: "dup", Email: got.Email, PasswordHash: "x", IsActive: true}
	assert.ErrorIs(t, repos.Users.Create(ctx, dup), entities.ErrEmailExists)

	require.NoError(t, repos.Users.SetActive(ctx, id, false))
	got, err = repos.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got.Name = "renamed"
	require.NoError(t, repos.Users.Update(ctx, got))
	got, err = repos.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = repos.Users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	assert.ErrorIs(t, repos.Users.SetActive(ctx, uuid.New(), true), entities.ErrUserNotFound)
}

func testRefreshTokens(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	userID := newUser(t, repos)

	hash := uuid.NewString()
	require.NoError(t, repos.Auth.CreateRefreshToken(ctx, userID, hash, time.Now().Add(time.Hour)))

	tok, err := repos.Auth.GetRefreshToken(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, userID, tok.UserID)
	assert.True(t, tok.IsValid())

	require.NoError(t, repos.Auth.RevokeRefreshToken(ctx, hash))
	assert.ErrorIs(t, repos.Auth.RevokeRefreshToken(ctx, hash), entities.ErrInvalidToken)

	tok, err = repos.Auth.GetRefreshToken(ctx, hash)
	require.NoError(t, err)
	assert.True(t, tok.IsRevoked())

	_, err = repos.Auth.GetRefreshToken(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)

	other := uuid.NewString()
	require.NoError(t, repos.Auth.CreateRefreshToken(ctx, userID, other, time.Now().Add(time.Hour)))
	require.NoError(t, repos.Auth.RevokeAllUserTokens(ctx, userID))
	tok, err = repos.Auth.GetRefreshToken(ctx, other)
	require.NoError(t, err)
	assert.False(t, tok.IsValid())
}

func testRefreshTokenRotation(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)
	expires := time.Now().Add(time.Hour)

	oldHash := uuid.NewString()
	require.NoError(t, repos.Auth.CreateRefreshToken(ctx, owner, oldHash, expires))

	// Another user cannot rotate the token.
	assert.ErrorIs(t, repos.Auth.RotateRefreshToken(ctx, stranger, oldHash, uuid.NewString(), expires), entities.ErrInvalidToken)

	newHash := uuid.NewString()
	require.NoError(t, repos.Auth.RotateRefreshToken(ctx, owner, oldHash, newHash, expires))

	tok, err := repos.Auth.GetRefreshToken(ctx, oldHash)
	require.NoError(t, err)
	assert.True(t, tok.IsRevoked())
	tok, err = repos.Auth.GetRefreshToken(ctx, newHash)
	require.NoError(t, err)
	assert.True(t, tok.IsValid())
	assert.Equal(t, owner, tok.UserID)

	assert.ErrorIs(t, repos.Auth.RotateRefreshToken(ctx, owner, oldHash, uuid.NewString(), expires), entities.ErrInvalidToken)
	assert.ErrorIs(t, repos.Auth.RotateRefreshToken(ctx, owner, "missing", uuid.NewString(), expires), entities.ErrInvalidToken)

	// A failed insert leaves the presented token usable.
	taken := uuid.NewString()
	require.NoError(t, repos.Auth.CreateRefreshToken(ctx, owner, taken, expires))
	assert.Error(t, repos.Auth.RotateRefreshToken(ctx, owner, newHash, taken, expires))
	tok, err = repos.Auth.GetRefreshToken(ctx, newHash)
	require.NoError(t, err)
	assert.True(t, tok.IsValid())
}

func testTasks(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	task := &entities.Task{
		UserID:   owner,
		Title:    "buy milk",
		Priority: entities.TaskPriorityMedium,
		Status:   entities.TaskStatusPending,
	}
	require.NoError(t, repos.Tasks.Create(ctx, task))
	require.NotZero(t, task.ID)

	got, err := repos.Tasks.GetByID(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Title)

	// Another user sees nothing and can change nothing.
	_, err = repos.Tasks.GetByID(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.ErrorIs(t, repos.Tasks.Delete(ctx, stranger, task.ID), entities.ErrTaskNotFound)
	_, err = repos.Tasks.Complete(ctx, stranger, task.ID, time.Now())
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	hijack := *got
	hijack.UserID = stranger
	hijack.Title = "stolen"
	assert.ErrorIs(t, repos.Tasks.Update(ctx, &hijack), entities.ErrTaskNotFound)
	list, err := repos.Tasks.List(ctx, stranger, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got.Description = strPtr("2 litres")
	got.Priority = entities.TaskPriorityHigh
	require.NoError(t, repos.Tasks.Update(ctx, got))

	list, err = repos.Tasks.List(ctx, owner, ports.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.TaskPriorityHigh, list[0].Priority)
	require.NotNil(t, list[0].Description)
	assert.Equal(t, "2 litres", *list[0].Description)

	completed := entities.TaskStatusCompleted
	list, err = repos.Tasks.List(ctx, owner, ports.TaskFilter{Status: &completed})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repos.Tasks.Delete(ctx, owner, task.ID))
	_, err = repos.Tasks.GetByID(ctx, owner, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.ErrorIs(t, repos.Tasks.Delete(ctx, owner, task.ID), entities.ErrTaskNotFound)
}

func testTaskCompletion(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)

	task := &entities.Task{UserID: owner, Title: "t", Priority: entities.TaskPriorityLow, Status: entities.TaskStatusPending}
	require.NoError(t, repos.Tasks.Create(ctx, task))

	at := time.Now().UTC().Truncate(time.Millisecond)
	done, err := repos.Tasks.Complete(ctx, owner, task.ID, at)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.WithinDuration(t, at, *done.CompletedAt, time.Millisecond)

	// Second completion is rejected and leaves completed_at untouched.
	_, err = repos.Tasks.Complete(ctx, owner, task.ID, at.Add(time.Hour))
	assert.ErrorIs(t, err, entities.ErrTaskNotPending)
	again, err := repos.Tasks.GetByID(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, at, *again.CompletedAt, time.Millisecond)

	// Concurrent completions: exactly one wins.
	racer := &entities.Task{UserID: owner, Title: "race", Priority: entities.TaskPriorityLow, Status: entities.TaskStatusPending}
	require.NoError(t, repos.Tasks.Create(ctx, racer))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repos.Tasks.Complete(ctx, owner, racer.ID, time.Now()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func testNotes(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	note := &entities.Note{UserID: owner, Content: "remember the milk", Tags: strPtr("shopping, home")}
	require.NoError(t, repos.Notes.Create(ctx, note))
	require.NotZero(t, note.ID)

	_, err := repos.Notes.GetByID(ctx, stranger, note.ID)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
	assert.ErrorIs(t, repos.Notes.Delete(ctx, stranger, note.ID), entities.ErrNoteNotFound)

	note.Content = "remember the oat milk"
	require.NoError(t, repos.Notes.Update(ctx, note))
	got, err := repos.Notes.GetByID(ctx, owner, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "remember the oat milk", got.Content)

	list, err := repos.Notes.List(ctx, owner, ports.NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = repos.Notes.List(ctx, stranger, ports.NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repos.Notes.Delete(ctx, owner, note.ID))
	_, err = repos.Notes.GetByID(ctx, owner, note.ID)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func testNoteSearch(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	a := &entities.Note{UserID: owner, Content: "Quarterly REPORT draft", Tags: strPtr("work")}
	b := &entities.Note{UserID: owner, Content: "grocery list", Tags: strPtr("Home, errands")}
	c := &entities.Note{UserID: owner, Content: "100% done_ish"}
	s := &entities.Note{UserID: stranger, Content: "stranger report", Tags: strPtr("work")}
	for _, n := range []*entities.Note{a, b, c, s} {
		require.NoError(t, repos.Notes.Create(ctx, n))
	}

	ids := func(notes []*entities.Note) []int64 {
		out := make([]int64, 0, len(notes))
		for _, n := range notes {
			out = append(out, n.ID)
		}
		return out
	}

	found, err := repos.Notes.Search(ctx, owner, "report", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID}, ids(found))

	found, err = repos.Notes.Search(ctx, owner, "", []string{"home"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{b.ID}, ids(found))

	found, err = repos.Notes.Search(ctx, owner, "report", []string{"errands"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, ids(found))

	// LIKE metacharacters are matched literally.
	found, err = repos.Notes.Search(ctx, owner, "0% done_", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{c.ID}, ids(found))
	found, err = repos.Notes.Search(ctx, owner, "%", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{c.ID}, ids(found))

	found, err = repos.Notes.Search(ctx, stranger, "grocery", nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testEvents(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	base := time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	early := &entities.CalendarEvent{UserID: owner, Title: "standup", StartTime: base, EndTime: base.Add(15 * time.Minute)}
	late := &entities.CalendarEvent{UserID: owner, Title: "review", StartTime: base.Add(48 * time.Hour), EndTime: base.Add(49 * time.Hour), Attendees: strPtr("a@x.test")}
	require.NoError(t, repos.Events.Create(ctx, late))
	require.NoError(t, repos.Events.Create(ctx, early))

	list, err := repos.Events.List(ctx, owner, ports.EventFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)

	from := base.Add(24 * time.Hour)
	list, err = repos.Events.List(ctx, owner, ports.EventFilter{StartAfter: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "review", list[0].Title)

	to := base.Add(time.Hour)
	list, err = repos.Events.List(ctx, owner, ports.EventFilter{EndBefore: &to})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "standup", list[0].Title)

	list, err = repos.Events.List(ctx, stranger, ports.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repos.Events.GetByID(ctx, stranger, early.ID)
	assert.ErrorIs(t, err, entities.ErrEventNotFound)
	assert.ErrorIs(t, repos.Events.Delete(ctx, stranger, early.ID), entities.ErrEventNotFound)
	require.NoError(t, repos.Events.Delete(ctx, owner, early.ID))
	_, err = repos.Events.GetByID(ctx, owner, early.ID)
	assert.ErrorIs(t, err, entities.ErrEventNotFound)
}

func newTimer(t *testing.T, repos *ports.Repositories, owner uuid.UUID, trigger time.Time) *entities.Timer {
	t.Helper()
	d := 60
	timer := &entities.Timer{
		UserID:          owner,
		Kind:            entities.TimerKindTimer,
		DurationSeconds: &d,
		TriggerTime:     trigger,
		Label:           strPtr("tea"),
		Status:          entities.TimerStatusActive,
	}
	require.NoError(t, repos.Timers.Create(context.Background(), timer))
	return timer
}

func testReminders(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)
	base := time.Now().UTC().Truncate(time.Second)

	later := &entities.Reminder{UserID: owner, Message: "dentist", ReminderTime: base.Add(2 * time.Hour)}
	require.NoError(t, repos.Reminders.Create(ctx, later))
	require.NotZero(t, later.ID)
	assert.Equal(t, entities.ReminderStatusPending, later.Status)
	assert.False(t, later.CreatedAt.IsZero())

	sooner := &entities.Reminder{UserID: owner, Message: "stand-up", ReminderTime: base.Add(time.Hour)}
	require.NoError(t, repos.Reminders.Create(ctx, sooner))
	cancelled := &entities.Reminder{UserID: owner, Message: "old", ReminderTime: base, Status: entities.ReminderStatusCancelled}
	require.NoError(t, repos.Reminders.Create(ctx, cancelled))
	require.NoError(t, repos.Reminders.Create(ctx, &entities.Reminder{UserID: stranger, Message: "theirs", ReminderTime: base}))

	got, err := repos.Reminders.GetByID(ctx, owner, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "dentist", got.Message)
	assert.True(t, later.ReminderTime.Equal(got.ReminderTime))

	_, err = repos.Reminders.GetByID(ctx, stranger, later.ID)
	assert.ErrorIs(t, err, entities.ErrReminderNotFound)

	all, err := repos.Reminders.List(ctx, owner, ports.ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{cancelled.ID, sooner.ID, later.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	pending := entities.ReminderStatusPending
	open, err := repos.Reminders.List(ctx, owner, ports.ReminderFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, sooner.ID, open[0].ID)

	page, err := repos.Reminders.List(ctx, owner, ports.ReminderFilter{Page: ports.Page{Limit: 1, Offset: 2}})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, later.ID, page[0].ID)
}

func testTimers(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)
	now := time.Now().UTC()

	past := newTimer(t, repos, owner, now.Add(-time.Minute))
	future := newTimer(t, repos, owner, now.Add(time.Hour))
	cancelled := newTimer(t, repos, owner, now.Add(-2*time.Minute))

	_, err := repos.Timers.Cancel(ctx, stranger, cancelled.ID, now)
	assert.ErrorIs(t, err, entities.ErrTimerNotFound)
	c, err := repos.Timers.Cancel(ctx, owner, cancelled.ID, now)
	require.NoError(t, err)
	assert.Equal(t, entities.TimerStatusCancelled, c.Status)
	_, err = repos.Timers.Cancel(ctx, owner, cancelled.ID, now)
	assert.ErrorIs(t, err, entities.ErrTimerNotActive)

	due, err := repos.Timers.ListDue(ctx, now, 10)
	require.NoError(t, err)
	dueIDs := make([]int64, 0, len(due))
	for _, d := range due {
		dueIDs = append(dueIDs, d.ID)
	}
	assert.Contains(t, dueIDs, past.ID)
	assert.NotContains(t, dueIDs, future.ID)
	assert.NotContains(t, dueIDs, cancelled.ID)

	fired, err := repos.Timers.MarkFired(ctx, past.ID, now)
	require.NoError(t, err)
	assert.Equal(t, entities.TimerStatusCompleted, fired.Status)
	assert.True(t, fired.IsNotified)
	require.NotNil(t, fired.CompletedAt)

	_, err = repos.Timers.MarkFired(ctx, past.ID, now.Add(time.Second))
	assert.ErrorIs(t, err, entities.ErrTimerNotActive)
	_, err = repos.Timers.Cancel(ctx, owner, past.ID, now)
	assert.ErrorIs(t, err, entities.ErrTimerNotActive)

	active := entities.TimerStatusActive
	list, err := repos.Timers.List(ctx, owner, ports.TimerFilter{Status: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, future.ID, list[0].ID)

	list, err = repos.Timers.List(ctx, stranger, ports.TimerFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testTimerRace(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	now := time.Now().UTC()

	for i := 0; i < 20; i++ {
		timer := newTimer(t, repos, owner, now.Add(-time.Second))

		var wg sync.WaitGroup
		var cancelErr, fireErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = repos.Timers.Cancel(ctx, owner, timer.ID, time.Now())
		}()
		go func() {
			defer wg.Done()
			_, fireErr = repos.Timers.MarkFired(ctx, timer.ID, time.Now())
		}()
		wg.Wait()

		// Exactly one of the two transitions must win.
		assert.True(t, (cancelErr == nil) != (fireErr == nil), "cancel=%v fire=%v", cancelErr, fireErr)

		got, err := repos.Timers.GetByID(ctx, owner, timer.ID)
		require.NoError(t, err)
		assert.NotEqual(t, entities.TimerStatusActive, got.Status)
		if got.Status == entities.TimerStatusCancelled {
			assert.False(t, got.IsNotified)
		} else {
			assert.True(t, got.IsNotified)
		}
	}
}

func testEmailLogs(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	for i, status := range []entities.EmailStatus{entities.EmailStatusSent, entities.EmailStatusFailed} {
		log := &entities.EmailLog{
			UserID:    &owner,
			Recipient: "bob@example.test",
			Subject:   "hello",
			Body:      "body",
			Status:    status,
			SentAt:    time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repos.EmailLogs.Create(ctx, log))
		require.NotZero(t, log.ID)
	}

	logs, err := repos.EmailLogs.List(ctx, owner, ports.Page{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, entities.EmailStatusFailed, logs[0].Status)

	logs, err = repos.EmailLogs.List(ctx, owner, ports.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entities.EmailStatusSent, logs[0].Status)

	logs, err = repos.EmailLogs.List(ctx, stranger, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func testNotifications(t *testing.T, repos *ports.Repositories) {
	ctx := context.Background()
	owner := newUser(t, repos)
	stranger := newUser(t, repos)

	n := &entities.Notification{UserID: owner, Message: "⏰ Timer finished!"}
	require.NoError(t, repos.Notifications.Create(ctx, n))
	require.NotEqual(t, uuid.Nil, n.ID)

	list, err := repos.Notifications.List(ctx, owner, true, ports.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, repos.Notifications.MarkRead(ctx, stranger, n.ID), entities.ErrNotificationNotFound)
	require.NoError(t, repos.Notifications.MarkRead(ctx, owner, n.ID))

	list, err = repos.Notifications.List(ctx, owner, true, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = repos.Notifications.List(ctx, owner, false, ports.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}

package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/ports"
)

// New wires every Postgres repository over a shared connection pool
func New(db *sqlx.DB) *ports.Repositories {
	return &ports.Repositories{
		Users:         NewUserRepository(db),
		Auth:          NewAuthRepository(db),
		Tasks:         NewTaskRepository(db),
		Notes:         NewNoteRepository(db),
		Events:        NewEventRepository(db),
		Timers:        NewTimerRepository(db),
		Reminders:     NewReminderRepository(db),
		EmailLogs:     NewEmailLogRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

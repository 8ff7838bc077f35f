package http

import (
	"github.com/labstack/echo/v4"
)

// APIPrefix is where every versioned route is mounted
const APIPrefix = "/api/v1"

// Handlers groups every handler the API serves
type Handlers struct {
	Auth          *AuthHandler
	Tasks         *TaskHandler
	Notes         *NoteHandler
	Events        *EventHandler
	Timers        *TimerHandler
	Reminders     *ReminderHandler
	Email         *EmailHandler
	Notifications *NotificationHandler
	Assistant     *AssistantHandler
}

// Register mounts every route on e. requireAuth guards everything except
// signup, login, refresh and the socket, which authenticates itself.
func (h *Handlers) Register(e *echo.Echo, requireAuth echo.MiddlewareFunc) {
	v1 := e.Group(APIPrefix)

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", h.Auth.Signup)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.RefreshToken)
	authGroup.POST("/logout", h.Auth.Logout, requireAuth)
	authGroup.GET("/me", h.Auth.Me, requireAuth)

	taskGroup := v1.Group("/tasks", requireAuth)
	taskGroup.GET("", h.Tasks.ListTasks)
	taskGroup.POST("", h.Tasks.CreateTask)
	taskGroup.GET("/:id", h.Tasks.GetTask)
	taskGroup.PUT("/:id", h.Tasks.UpdateTask)
	taskGroup.DELETE("/:id", h.Tasks.DeleteTask)
	taskGroup.POST("/:id/complete", h.Tasks.CompleteTask)

	noteGroup := v1.Group("/notes", requireAuth)
	noteGroup.GET("", h.Notes.ListNotes)
	noteGroup.POST("", h.Notes.CreateNote)
	noteGroup.GET("/search", h.Notes.SearchNotes)
	noteGroup.GET("/:id", h.Notes.GetNote)
	noteGroup.PUT("/:id", h.Notes.UpdateNote)
	noteGroup.DELETE("/:id", h.Notes.DeleteNote)

	eventGroup := v1.Group("/events", requireAuth)
	eventGroup.GET("", h.Events.ListEvents)
	eventGroup.POST("", h.Events.CreateEvent)
	eventGroup.GET("/:id", h.Events.GetEvent)
	eventGroup.DELETE("/:id", h.Events.DeleteEvent)

	timerGroup := v1.Group("/timers", requireAuth)
	timerGroup.GET("", h.Timers.ListTimers)
	timerGroup.POST("/timer", h.Timers.SetTimer)
	timerGroup.POST("/alarm", h.Timers.SetAlarm)
	timerGroup.GET("/:id", h.Timers.GetTimer)
	timerGroup.DELETE("/:id", h.Timers.CancelTimer)

	reminderGroup := v1.Group("/reminders", requireAuth)
	reminderGroup.GET("", h.Reminders.ListReminders)
	reminderGroup.POST("", h.Reminders.CreateReminder)
	reminderGroup.GET("/:id", h.Reminders.GetReminder)

	emailGroup := v1.Group("/email", requireAuth)
	emailGroup.POST("/send", h.Email.SendEmail)
	emailGroup.POST("/draft", h.Email.DraftEmail)
	emailGroup.GET("/logs", h.Email.ListLogs)

	notificationGroup := v1.Group("/notifications", requireAuth)
	notificationGroup.GET("", h.Notifications.ListNotifications)
	notificationGroup.POST("/:id/read", h.Notifications.MarkRead)

	v1.POST("/chat", h.Assistant.Chat, requireAuth)
	v1.GET("/chat/tools", h.Assistant.Tools, requireAuth)
	v1.POST("/search", h.Assistant.Search, requireAuth)
	v1.POST("/calculator/calculate", h.Assistant.Calculate, requireAuth)
	v1.POST("/calculator/convert", h.Assistant.Convert, requireAuth)

	e.GET("/ws/notifications", h.Notifications.Socket)
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// ReminderHandler handles reminder requests
type ReminderHandler struct {
	reminderService ports.ReminderService
	logger          *logger.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService ports.ReminderService, logger *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		logger:          logger,
	}
}

// CreateReminder stores a pending reminder
// @Summary Create a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.CreateReminderRequest true "Reminder"
// @Success 201 {object} Response{data=entities.Reminder}
// @Failure 400 {object} ErrorResponse
// @Router /reminders [post]
func (h *ReminderHandler) CreateReminder(c echo.Context) error {
	var req ports.CreateReminderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reminder, err := h.reminderService.CreateReminder(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, reminder)
}

// ListReminders lists reminders by reminder time
// @Summary List reminders
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, completed or cancelled"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.Reminder]}
// @Failure 400 {object} ErrorResponse
// @Router /reminders [get]
func (h *ReminderHandler) ListReminders(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := ports.ReminderFilter{Page: page}
	if s := c.QueryParam("status"); s != "" {
		status := entities.ReminderStatus(s)
		filter.Status = &status
	}

	reminders, err := h.reminderService.ListReminders(c.Request().Context(), CurrentUserID(c), filter)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, reminders, page)
}

// GetReminder returns one reminder
// @Summary Get a reminder
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 200 {object} Response{data=entities.Reminder}
// @Failure 404 {object} ErrorResponse
// @Router /reminders/{id} [get]
func (h *ReminderHandler) GetReminder(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	reminder, err := h.reminderService.GetReminder(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, reminder)
}

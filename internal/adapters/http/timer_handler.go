package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// TimerHandler handles timer and alarm requests
type TimerHandler struct {
	timerService ports.TimerService
	logger       *logger.Logger
}

// NewTimerHandler creates a new timer handler
func NewTimerHandler(timerService ports.TimerService, logger *logger.Logger) *TimerHandler {
	return &TimerHandler{
		timerService: timerService,
		logger:       logger,
	}
}

// SetTimer starts a countdown
// @Summary Set a timer
// @Tags timers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.SetTimerRequest true "Duration and label"
// @Success 201 {object} Response{data=entities.Timer}
// @Router /timers/timer [post]
func (h *TimerHandler) SetTimer(c echo.Context) error {
	var req ports.SetTimerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	timer, err := h.timerService.SetTimer(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, timer)
}

// SetAlarm schedules an alarm at an absolute time
// @Summary Set an alarm
// @Tags timers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.SetAlarmRequest true "Trigger time and label"
// @Success 201 {object} Response{data=entities.Timer}
// @Failure 400 {object} ErrorResponse
// @Router /timers/alarm [post]
func (h *TimerHandler) SetAlarm(c echo.Context) error {
	var req ports.SetAlarmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	timer, err := h.timerService.SetAlarm(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, timer)
}

// ListTimers lists the caller's timers and alarms
// @Summary List timers
// @Tags timers
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, completed or cancelled"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.Timer]}
// @Router /timers [get]
func (h *TimerHandler) ListTimers(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := ports.TimerFilter{Page: page}
	if s := c.QueryParam("status"); s != "" {
		status := entities.TimerStatus(s)
		filter.Status = &status
	}

	timers, err := h.timerService.ListTimers(c.Request().Context(), CurrentUserID(c), filter)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, timers, page)
}

// GetTimer returns one timer
// @Summary Get a timer
// @Tags timers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Timer ID"
// @Success 200 {object} Response{data=entities.Timer}
// @Failure 404 {object} ErrorResponse
// @Router /timers/{id} [get]
func (h *TimerHandler) GetTimer(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	timer, err := h.timerService.GetTimer(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, timer)
}

// CancelTimer cancels an active timer
// @Summary Cancel a timer
// @Tags timers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Timer ID"
// @Success 200 {object} Response{data=entities.Timer}
// @Failure 409 {object} ErrorResponse
// @Router /timers/{id} [delete]
func (h *TimerHandler) CancelTimer(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	timer, err := h.timerService.CancelTimer(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, timer)
}

package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// EventHandler handles calendar requests
type EventHandler struct {
	eventService ports.EventService
	logger       *logger.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService ports.EventService, logger *logger.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// CreateEvent schedules an event
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.CreateEventRequest true "Event"
// @Success 201 {object} Response{data=entities.CalendarEvent}
// @Failure 400 {object} ErrorResponse
// @Router /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req ports.CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.eventService.CreateEvent(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusCreated, event)
}

// ListEvents lists events ordered by start time, optionally within a window
// @Summary List events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start query string false "RFC 3339 lower bound on start_time"
// @Param end query string false "RFC 3339 upper bound on start_time"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.CalendarEvent]}
// @Router /events [get]
func (h *EventHandler) ListEvents(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	filter := ports.EventFilter{Page: page}
	if filter.StartAfter, err = timeQuery(c, "start"); err != nil {
		return err
	}
	if filter.EndBefore, err = timeQuery(c, "end"); err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), CurrentUserID(c), filter)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, events, page)
}

// GetEvent returns one event
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} Response{data=entities.CalendarEvent}
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	event, err := h.eventService.GetEvent(c.Request().Context(), CurrentUserID(c), id)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, event)
}

// DeleteEvent deletes an event
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} Response
// @Router /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.eventService.DeleteEvent(c.Request().Context(), CurrentUserID(c), id); err != nil {
		return domainError(err)
	}

	return respondMessage(c, "Event deleted")
}

func timeQuery(c echo.Context, name string) (*time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter, expected RFC 3339")
	}
	return &t, nil
}

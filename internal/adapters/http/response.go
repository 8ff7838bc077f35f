package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/application/assistant"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

// Response is the envelope every successful call returns
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope every failed call returns
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PaginatedResponse wraps a page of items
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func respondMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func respondPage[T any](c echo.Context, items []T, page ports.Page) error {
	if items == nil {
		items = []T{}
	}
	return respond(c, http.StatusOK, PaginatedResponse[T]{
		Items:  items,
		Count:  len(items),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// Statuses for domain errors. Anything not listed is a 500.
var errorStatuses = []struct {
	err  error
	code int
}{
	{entities.ErrUserNotFound, http.StatusNotFound},
	{entities.ErrTaskNotFound, http.StatusNotFound},
	{entities.ErrNoteNotFound, http.StatusNotFound},
	{entities.ErrEventNotFound, http.StatusNotFound},
	{entities.ErrTimerNotFound, http.StatusNotFound},
	{entities.ErrReminderNotFound, http.StatusNotFound},
	{entities.ErrNotificationNotFound, http.StatusNotFound},
	{entities.ErrEmailExists, http.StatusConflict},
	{entities.ErrTaskNotPending, http.StatusConflict},
	{entities.ErrTimerNotActive, http.StatusConflict},
	{entities.ErrInvalidCredentials, http.StatusUnauthorized},
	{entities.ErrInvalidToken, http.StatusUnauthorized},
	{entities.ErrInactiveUser, http.StatusForbidden},
	{entities.ErrValidation, http.StatusBadRequest},
	{entities.ErrInvalidTimeRange, http.StatusBadRequest},
	{entities.ErrInvalidDuration, http.StatusBadRequest},
	{services.ErrAlarmInPast, http.StatusBadRequest},
	{assistant.ErrEmptyMessage, http.StatusBadRequest},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// domainError converts a service error into an HTTP error. Expected outcomes
// keep their message; anything else is hidden behind a generic 500 and the
// original error is kept as Internal for logging.
func domainError(err error) error {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			msg := err.Error()
			if s.code == http.StatusGatewayTimeout {
				msg = "The operation timed out"
			}
			return echo.NewHTTPError(s.code, msg).SetInternal(err)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// bindAndValidate decodes the body into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// pageParams reads limit and offset query parameters
func pageParams(c echo.Context) (ports.Page, error) {
	var page ports.Page
	if s := c.QueryParam("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			return page, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		page.Limit = limit
	}
	if s := c.QueryParam("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return page, echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
		page.Offset = offset
	}
	return page.Normalize(), nil
}

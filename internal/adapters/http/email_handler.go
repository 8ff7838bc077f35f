package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// EmailHandler handles outbound email requests
type EmailHandler struct {
	emailService ports.EmailService
	logger       *logger.Logger
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(emailService ports.EmailService, logger *logger.Logger) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
		logger:       logger,
	}
}

// SendEmail delivers a message and logs the attempt. A delivery failure is
// reported as 502 after the attempt has been logged.
// @Summary Send an email
// @Tags email
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.SendEmailRequest true "Message"
// @Success 201 {object} Response{data=entities.EmailLog}
// @Failure 502 {object} ErrorResponse
// @Router /email/send [post]
func (h *EmailHandler) SendEmail(c echo.Context) error {
	var req ports.SendEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.emailService.SendEmail(c.Request().Context(), CurrentUserID(c), req)
	if err != nil {
		return domainError(err)
	}
	if entry.Status == entities.EmailStatusFailed {
		return echo.NewHTTPError(http.StatusBadGateway, "Email delivery failed; the attempt was logged")
	}

	return respond(c, http.StatusCreated, entry)
}

// DraftEmail builds a draft from free-form context
// @Summary Draft an email
// @Tags email
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.DraftEmailRequest true "Context and tone"
// @Success 200 {object} Response{data=ports.EmailDraft}
// @Router /email/draft [post]
func (h *EmailHandler) DraftEmail(c echo.Context) error {
	var req ports.DraftEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	draft, err := h.emailService.DraftEmail(c.Request().Context(), req)
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, draft)
}

// ListLogs lists the caller's send attempts, newest first
// @Summary List email logs
// @Tags email
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.EmailLog]}
// @Router /email/logs [get]
func (h *EmailHandler) ListLogs(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	logs, err := h.emailService.ListLogs(c.Request().Context(), CurrentUserID(c), page)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, logs, page)
}

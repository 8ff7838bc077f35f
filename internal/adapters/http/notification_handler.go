package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// SocketServer holds a live notification connection for a user
type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
}

// NotificationHandler handles notification requests and the live socket
type NotificationHandler struct {
	notificationService ports.NotificationService
	sockets             SocketServer
	tokens              TokenValidator
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService ports.NotificationService, sockets SocketServer, tokens TokenValidator, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		sockets:             sockets,
		tokens:              tokens,
		logger:              logger,
	}
}

// ListNotifications lists the caller's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=PaginatedResponse[entities.Notification]}
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	unreadOnly := false
	if s := c.QueryParam("unread"); s != "" {
		if unreadOnly, err = strconv.ParseBool(s); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid unread parameter")
		}
	}

	items, err := h.notificationService.List(c.Request().Context(), CurrentUserID(c), unreadOnly, page)
	if err != nil {
		return domainError(err)
	}

	return respondPage(c, items, page)
}

// MarkRead marks one notification read
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), CurrentUserID(c), id); err != nil {
		return domainError(err)
	}

	return respondMessage(c, "Notification marked as read")
}

// Socket upgrades to a WebSocket that streams the caller's notifications.
// Browsers cannot set headers on a WebSocket handshake, so the access token
// may also be passed as the token query parameter.
// @Summary Live notifications
// @Tags notifications
// @Param token query string false "Access token"
// @Router /ws/notifications [get]
func (h *NotificationHandler) Socket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		var ok bool
		if token, ok = bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); !ok {
			return echo.NewHTTPError(http.StatusForbidden, "Not authenticated")
		}
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.LogSecurityEvent("invalid_socket_token", "", c.RealIP(), map[string]interface{}{
			"error": err.Error(),
		})
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	// The upgrader writes its own response on failure.
	if err := h.sockets.Serve(c.Response(), c.Request(), claims.UserID); err != nil {
		h.logger.Warnw("Notification socket failed", "user_id", claims.UserID, "error", err)
	}
	return nil
}

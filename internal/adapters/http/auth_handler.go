package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	userService ports.UserService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, userService ports.UserService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Signup registers a new account and returns a token pair
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.SignupRequest true "New account"
// @Success 201 {object} Response{data=ports.AuthResponse}
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req ports.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Signup failed", "error", err, "email", req.Email)
		return domainError(err)
	}

	return respond(c, http.StatusCreated, response)
}

// Login handles user login
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} Response{data=ports.AuthResponse}
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", "", c.RealIP(), map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return domainError(err)
	}

	return respond(c, http.StatusOK, response)
}

// RefreshToken rotates a refresh token
// @Summary Refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RefreshRequest true "Refresh token"
// @Success 200 {object} Response{data=ports.AuthResponse}
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req ports.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	response, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warnw("Token refresh failed", "error", err)
		return domainError(err)
	}

	return respond(c, http.StatusOK, response)
}

// Logout revokes the presented refresh token
// @Summary Log out
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ports.RefreshRequest true "Refresh token"
// @Success 200 {object} Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req ports.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := CurrentUserID(c)
	if err := h.authService.Logout(c.Request().Context(), userID, req.RefreshToken); err != nil {
		h.logger.Errorw("Logout failed", "error", err, "user_id", userID)
		return domainError(err)
	}

	h.logger.LogUserAction(userID.String(), "logout", nil)
	return respondMessage(c, "Logged out successfully")
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=entities.User}
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), CurrentUserID(c))
	if err != nil {
		return domainError(err)
	}

	return respond(c, http.StatusOK, user)
}

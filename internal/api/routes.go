package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/internal/websocket"
	"github.com/satriahrh/voicekey/server/usecase"
)

type handler struct {
	auth     *usecase.AuthService
	security *usecase.SecurityService
	logger   *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, authService *usecase.AuthService, securityService *usecase.SecurityService, logger *zap.Logger) {
	e.Validator = NewRequestValidator()

	h := &handler{auth: authService, security: securityService, logger: logger}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "voicekey-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// User Management APIs
	v1.POST("/users/register", h.register)
	v1.POST("/users/login", h.login)

	authed := v1.Group("", requireAuth(authService, logger))
	authed.POST("/users/logout", h.logout)
	authed.GET("/users/me", h.me)
	authed.POST("/security/analyze", h.analyze)

	// Recording happens before login, so the recorder socket is public.
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func (h *handler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind register request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: usecase.MsgRegistrationIncomplete,
		})
	}

	user, err := h.auth.Register(c.Request().Context(), req.Username, req.VoicePrint)
	switch {
	case errors.Is(err, usecase.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: usecase.MsgRegistrationIncomplete,
		})
	case errors.Is(err, usecase.ErrDuplicateUser):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_user",
			Message: "This username is already registered. Please log in instead.",
		})
	case err != nil:
		h.logger.Error("Registration failed", zap.String("username", req.Username), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "registration_failed",
			Message: "Registration failed. Please try again.",
		})
	}

	return c.JSON(http.StatusCreated, RegisterResponse{ID: user.ID})
}

func (h *handler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: usecase.MsgLoginIncomplete,
		})
	}

	result, err := h.auth.Login(c.Request().Context(), req.VoicePrint)
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "No registered user found. Please register first.",
		})
	case errors.Is(err, usecase.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: usecase.MsgLoginIncomplete,
		})
	case err != nil:
		h.logger.Error("Login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "login_failed",
			Message: "Login failed. Please try again.",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		UserID:    result.Session.UserID,
	})
}

func (h *handler) logout(c echo.Context) error {
	claims := claimsFrom(c)
	if err := h.auth.Logout(c.Request().Context(), claims.SessionID); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "logout_failed",
			Message: "Logout failed. Please try again.",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *handler) me(c echo.Context) error {
	profile, err := h.auth.Profile(c.Request().Context())
	if errors.Is(err, usecase.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No registered user found.",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handler) analyze(c echo.Context) error {
	result := h.security.AnalyzeCurrentUser(c.Request().Context())
	if result.Success {
		return c.JSON(http.StatusOK, result)
	}
	if result.Error == usecase.MsgNoVoicePrint {
		return c.JSON(http.StatusNotFound, result)
	}
	return c.JSON(http.StatusServiceUnavailable, result)
}

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/repositories"
	"github.com/satriahrh/swara/internal/auth"
	"github.com/satriahrh/swara/internal/websocket"
)

// Handler carries the dependencies shared by the HTTP routes
type Handler struct {
	hub        *websocket.Hub
	deviceRepo repositories.DeviceRepository
	sessions   repositories.SessionRepository
	jwt        *auth.Service
	logger     *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	deviceRepo repositories.DeviceRepository,
	sessions repositories.SessionRepository,
	jwt *auth.Service,
	logger *zap.Logger,
) {
	h := &Handler{
		hub:        hub,
		deviceRepo: deviceRepo,
		sessions:   sessions,
		jwt:        jwt,
		logger:     logger,
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "swara-gateway",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Device APIs
	v1.POST("/device/auth", h.deviceAuth)

	// Conversation History APIs
	v1.GET("/conversations/last", h.lastConversation)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.websocketWithAuth)
}

// deviceAuth exchanges device credentials for a JWT
func (h *Handler) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest

	// Bind and validate request
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	// Validate required fields
	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := h.deviceRepo.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		h.logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	// Generate JWT token for the device
	token, err := h.jwt.GenerateDeviceToken(device.ID)
	if err != nil {
		h.logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	// Expiration mirrors the JWT claims (24 hours)
	expiresAt := time.Now().Add(24 * time.Hour)

	h.logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  device.ID,
	})
}

// lastConversation returns the authenticated device's most recent session
func (h *Handler) lastConversation(c echo.Context) error {
	claims, err := h.authenticate(c)
	if claims == nil {
		return err
	}

	session, err := h.sessions.GetLastByDeviceID(c.Request().Context(), claims.DeviceID)
	if err != nil {
		h.logger.Error("Failed to load last session",
			zap.String("device_id", claims.DeviceID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load conversation",
		})
	}

	if session == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_conversation",
			Message: "Device has no conversations yet",
		})
	}

	return c.JSON(http.StatusOK, ConversationResponse{
		SessionID: session.ID.Hex(),
		Status:    session.Status,
		Messages:  session.Messages,
	})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (h *Handler) websocketWithAuth(c echo.Context) error {
	claims, err := h.authenticate(c)
	if claims == nil {
		return err
	}

	h.logger.Info("WebSocket connection authenticated",
		zap.String("device_id", claims.DeviceID),
		zap.String("role", claims.Role))

	// Handle WebSocket connection with authenticated device ID
	return websocket.HandleWebSocket(h.hub, c, claims.DeviceID, h.logger)
}

// authenticate validates the bearer token and returns its claims. On
// failure the error response is already written and nil claims are
// returned.
func (h *Handler) authenticate(c echo.Context) (*auth.Claims, error) {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token == "" {
		h.logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		h.logger.Warn("Request rejected: invalid token", zap.Error(err))
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "device" {
		h.logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
		return nil, c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only device tokens are allowed",
		})
	}

	if claims.DeviceID == "" {
		return nil, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	return claims, nil
}

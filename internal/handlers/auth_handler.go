package handlers

import (
	"usersapi/internal/middleware"
	"usersapi/internal/response"
	"usersapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers the authentication routes that need a
// valid access token.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/auth/password/change", h.HandleChangePassword)
}

// HandleLogin exchanges a grant for an access and a refresh token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.GrantRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			h.logger.Debug("Error parsing login request body", zap.Error(err))
			return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, "Invalid request body")
		}
	}

	bundle, err := h.authService.Authenticate(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"message":       "Authentication successful!",
		"token_type":    bundle.TokenType,
		"access_token":  bundle.AccessToken,
		"refresh_token": bundle.RefreshToken,
		"user":          bundle.User,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// HandleChangePassword sets a new password for the requester's own account.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, services.CodeMissingRequiredField, "Missing password")
	}

	requester := middleware.Requester(c)
	if err := h.userService.ChangePassword(c.UserContext(), requester.ID, req.Password); err != nil {
		return response.Error(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "Password successfully changed.",
		"statusCode": fiber.StatusOK,
	})
}

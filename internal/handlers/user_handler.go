package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"usersapi/internal/middleware"
	"usersapi/internal/repositories"
	"usersapi/internal/response"
	"usersapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the public user routes.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/users", middleware.Camelizer(), h.HandleCreateUser)
}

// RegisterProtectedRoutes registers the user routes behind the token gate.
func (h *UserHandler) RegisterProtectedRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Put("/:id", middleware.Camelizer(), h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=50"`
	Email           string     `json:"email" validate:"required,email,max=100"`
	Password        string     `json:"password" validate:"required"`
	Mobile          *string    `json:"mobile" validate:"omitnil,min=10,max=15"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsDeleted       bool       `json:"isDeleted"`
	IsAdmin         bool       `json:"isAdmin"`
}

// UpdateUserRequest represents the editable fields of a user. Any other
// field in the body is ignored.
type UpdateUserRequest struct {
	Name        *string    `json:"name" validate:"omitnil,min=1,max=50"`
	Mobile      *string    `json:"mobile" validate:"omitnil,min=10,max=15"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// HandleCreateUser creates a new account.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("Error parsing create user request body", zap.Error(err))
		return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, "Invalid request body")
	}
	// Names are stored trimmed, so length rules apply to the trimmed value.
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		return h.validationFailed(c, err)
	}

	user, err := h.service.Create(c.UserContext(), services.CreateUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Mobile:          req.Mobile,
		DateOfBirth:     req.DateOfBirth,
		IsEmailVerified: req.IsEmailVerified,
		IsDeleted:       req.IsDeleted,
		IsAdmin:         req.IsAdmin,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleGetUsers lists the active users matching the query filters.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	filter, err := parseUserFilter(c.Context().QueryArgs())
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, err.Error())
	}

	users, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return response.Error(c, err)
	}
	return c.JSON(users)
}

// HandleGetUserByID retrieves a single user by its ID.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return c.JSON(user)
}

// HandleUpdateUser updates the profile of the user with the given ID.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if !services.IsAuthorized(userID, middleware.Requester(c)) {
		return h.forbidden(c)
	}

	var req UpdateUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, "Invalid request body")
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFailed(c, err)
	}

	user, err := h.service.Update(c.UserContext(), userID, repositories.UserChanges{
		Name:        req.Name,
		Mobile:      req.Mobile,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return c.JSON(user)
}

// HandleDeleteUser flags the user with the given ID as deleted.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if !services.IsAuthorized(userID, middleware.Requester(c)) {
		return h.forbidden(c)
	}

	if err := h.service.Delete(c.UserContext(), userID); err != nil {
		return response.Error(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "User successfully deleted.",
		"statusCode": fiber.StatusOK,
	})
}

func (h *UserHandler) forbidden(c *fiber.Ctx) error {
	requester := middleware.Requester(c)
	if requester != nil {
		h.logger.Info("Forbidden user modification",
			zap.String("requester_id", requester.ID),
			zap.String("target_id", c.Params("id")),
			zap.String("method", c.Method()))
	}
	return response.Error(c, services.NewError(services.KindForbidden,
		"You do not have permission to carry out this operation."))
}

func (h *UserHandler) validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return response.Fail(c, fiber.StatusBadRequest, services.CodeInvalidFieldValue, "Validation failed")
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success":    false,
		"message":    "Validation failed",
		"errorCode":  services.CodeInvalidFieldValue,
		"statusCode": fiber.StatusBadRequest,
		"errors":     errorMessages,
	})
}

// parseUserFilter reads the list filters from the query string. Repeated
// keys select several values. limit and skip apply only together.
func parseUserFilter(args *fasthttp.Args) (repositories.UserFilter, error) {
	filter := repositories.UserFilter{
		IDs:      multi(args, "user_id"),
		Names:    multi(args, "name"),
		NameLike: string(args.Peek("nl")),
		Emails:   multi(args, "email"),
		Mobiles:  multi(args, "mobile"),
	}

	limit, skip := string(args.Peek("limit")), string(args.Peek("skip"))
	if limit != "" && skip != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		s, err := strconv.Atoi(skip)
		if err != nil || s < 0 {
			return filter, errors.New("skip must be a non-negative integer")
		}
		filter.Paginate, filter.Limit, filter.Skip = true, l, s
	}
	return filter, nil
}

func multi(args *fasthttp.Args, key string) []string {
	raw := args.PeekMulti(key)
	if len(raw) == 0 {
		raw = args.PeekMulti(key + "[]")
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if len(v) > 0 {
			values = append(values, string(v))
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

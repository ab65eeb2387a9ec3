package server

import (
	"time"

	"usersapi/internal/handlers"
	"usersapi/internal/middleware"
	"usersapi/internal/response"
	"usersapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Options carries the collaborators the HTTP server is built from.
type Options struct {
	AuthService *services.AuthService
	UserService *services.UserService
	Verifier    services.TokenVerifier
	Logger      *zap.Logger
	// RequestLog enables Fiber's access log.
	RequestLog bool
}

// New builds the Fiber application with every route registered.
func New(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "users-api",
		ErrorHandler:          response.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if opts.RequestLog {
		app.Use(fiberlogger.New())
	}

	health := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Users API is running",
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
		})
	}
	app.Get("/", health)
	app.Get("/health", health)

	authHandler := handlers.NewAuthHandler(opts.AuthService, opts.UserService, opts.Logger)
	userHandler := handlers.NewUserHandler(opts.UserService, opts.Logger)

	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1)

	// Everything below requires a valid access token.
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(opts.Verifier, opts.Logger))
	authHandler.RegisterProtectedRoutes(protectedRoutes)
	userHandler.RegisterProtectedRoutes(protectedRoutes)

	return app
}

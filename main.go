package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"usersapi/internal/config"
	"usersapi/internal/database"
	"usersapi/internal/repositories"
	"usersapi/internal/server"
	"usersapi/internal/services"
	"usersapi/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app, cleanup, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create app", zap.Error(err))
	}
	defer cleanup()

	// --- Start HTTP Server ---
	logger.Info("Starting server", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newApp wires the repositories, services and HTTP server described by cfg.
// The returned cleanup releases the database and broker connections.
func newApp(cfg config.Config, logger *zap.Logger) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Initialize Repositories ---
	var userRepo repositories.UserRepository
	if cfg.DBDriver == "memory" {
		userRepo = repositories.NewMemoryUserRepository()
	} else {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() {
			if err := database.Close(db); err != nil {
				logger.Error("Failed to close database", zap.Error(err))
			}
		})
		userRepo = repositories.NewGORMUserRepository(db)
	}

	// --- Initialize RabbitMQ Client ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: services.EventsExchange}, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, continuing without events", zap.Error(err))
		} else {
			publisher = mqClient
			closers = append(closers, func() {
				if err := mqClient.Close(); err != nil {
					logger.Error("Failed to close RabbitMQ client", zap.Error(err))
				}
			})
			if err := mqClient.ConsumeUserEvents(rabbitmq.LogEvent(logger)); err != nil {
				logger.Warn("Failed to start RabbitMQ consumer", zap.Error(err))
			}
		}
	}

	// --- Initialize Services ---
	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, logger)
	if err != nil {
		return nil, cleanup, err
	}
	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	authService := services.NewAuthService(userRepo, hasher, tokens, publisher, logger)
	userService := services.NewUserService(userRepo, hasher, publisher, logger, cfg.IsTest())

	app := server.New(server.Options{
		AuthService: authService,
		UserService: userService,
		Verifier:    tokens,
		Logger:      logger,
		RequestLog:  !cfg.IsTest(),
	})
	return app, cleanup, nil
}

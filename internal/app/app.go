// Package app assembles the jobtrack HTTP server from its configuration
package app

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/config"
	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/internal/logger"
	"github.com/prefect-field/jobtrack/internal/services"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
	"github.com/prefect-field/jobtrack/pkg/api/v1/handlers"
	"github.com/prefect-field/jobtrack/pkg/api/v1/middleware"
	"github.com/prefect-field/jobtrack/pkg/api/v1/routes"
)

// Services holds everything the handlers depend on
type Services struct {
	Job     *services.Job
	User    *services.User
	Machine *services.Machine
	Auth    *services.Auth
}

// DatabaseOptions maps the configuration onto db.Options
func DatabaseOptions(cfg *config.Config) db.Options {
	return db.Options{
		Driver:        cfg.Database.Driver,
		Host:          cfg.Database.Host,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		DBName:        cfg.Database.Name,
		Port:          cfg.Database.Port,
		SSLMode:       cfg.Database.SSLMode,
		Path:          cfg.Database.Path,
		AdminUsername: cfg.Auth.AdminUsername,
		AdminPassword: cfg.Auth.AdminPassword,
	}
}

// NewServices builds the repositories and services on top of an open database
func NewServices(cfg *config.Config, database *gorm.DB, bus *events.Bus) (Services, error) {
	policy, err := workflow.ParseRejectPolicy(cfg.Workflow.RejectPolicy)
	if err != nil {
		return Services{}, fmt.Errorf("invalid reject policy: %w", err)
	}

	jobRepo := repos.NewJobRepository(database)
	machineRepo := repos.NewMachineRepository(database)
	userRepo := repos.NewUserRepository(database)

	return Services{
		Job:     services.NewJobService(jobRepo, machineRepo, bus, policy),
		User:    services.NewUserService(userRepo),
		Machine: services.NewMachineService(machineRepo),
		Auth:    services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}, nil
}

// New creates the fiber app serving the health check and the v1 API
func New(svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "jobtrack",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())

	api := handlers.NewAPIHandler(svc.Job, svc.User, svc.Machine, svc.Auth)
	routes.RegisterRoutes(app, routes.Handlers{
		Auth:    handlers.NewAuthHandler(api),
		Job:     handlers.NewJobHandler(api),
		Machine: handlers.NewMachineHandler(api),
		User:    handlers.NewUserHandler(api),
	}, svc.Auth)

	return app
}

// errorHandler catches errors the handlers did not answer themselves, such as unknown routes and panics
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		logger.Errorf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(types.ErrorResponse{Error: msg})
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prefect-field/jobtrack/internal/app"
	"github.com/prefect-field/jobtrack/internal/config"
	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/events"
	log "github.com/prefect-field/jobtrack/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Configure(cfg.LogLevel)

	database, err := db.New(app.DatabaseOptions(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the bus outlives the signal so requests drained during shutdown are still audited
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	bus := events.NewBus()
	bus.SubscribeAll(events.AuditLogger())
	bus.Start(busCtx)

	svc, err := app.NewServices(cfg, database, bus)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}
	server := app.New(svc)

	if backlog, err := repos.NewJobRepository(database).Count(ctx, models.JobStatusCompletedPendingApproval); err != nil {
		log.Warnf("Could not count jobs awaiting approval: %v", err)
	} else if backlog > 0 {
		log.Infof("%d job(s) awaiting approval", backlog)
	}

	go func() {
		log.Infof("Listening on :%s (store: %s)", cfg.Server.Port, cfg.Database.Driver)
		if err := server.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("Shutdown failed: %v", err)
	}
	stopBus()
	bus.Wait()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

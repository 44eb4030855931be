// This file is used to run database migrations and to import legacy data
// How to run:
// go run ./cmd/migrate                              # Run all pending migrations
// go run ./cmd/migrate -down                        # Rollback all migrations
// go run ./cmd/migrate -steps 1                     # Run one migration
// go run ./cmd/migrate -steps -1                    # Rollback one migration
// go run ./cmd/migrate -force 1                     # Force version 1
// go run ./cmd/migrate -import data/data.json       # Import a json-server data file
// go run ./cmd/migrate -import data.json -dry-run   # Show what the import would write
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/prefect-field/jobtrack/internal/app"
	"github.com/prefect-field/jobtrack/internal/config"
	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/migrations"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/legacy"
	log "github.com/prefect-field/jobtrack/internal/logger"
)

func main() {
	var (
		dbURLFlag  = flag.String("db", "", "Database URL (optional, defaults to env vars)")
		down       = flag.Bool("down", false, "Roll back migrations")
		steps      = flag.Int("steps", 0, "Number of migrations to apply (up or down)")
		force      = flag.Int("force", -1, "Force a specific version")
		retries    = flag.Int("retries", 5, "Number of connection retries")
		retryWait  = flag.Duration("retry-wait", 3*time.Second, "Wait time between retries")
		importFile = flag.String("import", "", "Legacy json-server data file to import")
		dryRun     = flag.Bool("dry-run", false, "With -import, validate the file without writing")
		timezone   = flag.String("tz", "Local", "Zone the legacy timestamps were written in")
	)
	flag.Parse()

	// Load .env file and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Configure(cfg.LogLevel)

	// The admin seed belongs to the server
	dbOpts := app.DatabaseOptions(cfg)
	dbOpts.AdminPassword = ""

	if *importFile != "" {
		runImport(dbOpts, *importFile, *timezone, *dryRun)
		return
	}

	if dbOpts.Driver == db.DriverSQLite && *dbURLFlag == "" {
		log.Info("SQLite schemas are created by the server on startup, nothing to migrate")
		return
	}

	// Use command line flag if provided, otherwise use env vars
	dbURL := db.PostgresURL(dbOpts)
	if *dbURLFlag != "" {
		dbURL = *dbURLFlag
	}

	service, err := migrations.NewMigrationService(migrations.Config{
		DatabaseURL:   dbURL,
		RetryAttempts: *retries,
		RetryDelay:    *retryWait,
	})
	if err != nil {
		log.Fatalf("Failed to create migration service: %v", err)
	}
	defer service.Close()

	// Handle force version
	if *force >= 0 {
		if err := service.Force(*force); err != nil {
			log.Fatalf("Failed to force version %d: %v", *force, err)
		}
		log.Infof("Successfully forced version to %d", *force)
		return
	}

	// Handle steps
	if *steps != 0 {
		if err := service.Steps(*steps); err != nil {
			log.Fatalf("Failed to apply %d steps: %v", *steps, err)
		}
		log.Infof("Successfully applied %d steps", *steps)
		return
	}

	// Handle up/down
	if *down {
		if err := service.Down(); err != nil {
			log.Fatalf("Migration rollback failed: %v", err)
		}
	} else {
		if err := service.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	status, err := service.Status()
	if err != nil {
		log.Warnf("Could not get final version: %v", err)
	} else {
		log.Infof("Schema is at %s", status)
	}
}

func runImport(dbOpts db.Options, path, timezone string, dryRun bool) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Fatalf("Unknown timezone %q: %v", timezone, err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	ds, err := legacy.Load(f)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	database, err := db.New(dbOpts)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	importer := legacy.NewImporter(
		repos.NewUserRepository(database),
		repos.NewJobRepository(database),
		repos.NewMachineRepository(database),
	)
	importer.Location = loc
	importer.DryRun = dryRun

	report, err := importer.Import(context.Background(), ds)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	for _, skipped := range report.Skipped {
		log.Warnf("skipped %s", skipped)
	}
	log.Infof("Imported %d users, %d machines and %d jobs (dry run: %v)",
		report.Users, report.Machines, report.Jobs, dryRun)
}

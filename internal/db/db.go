// Package db provides database connectivity and operations
package db

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/logger"
)

// Database configuration constants
const (
	// DriverPostgres selects the PostgreSQL store
	DriverPostgres = "postgres"
	// DriverSQLite selects the single file SQLite store
	DriverSQLite = "sqlite"

	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName  = "jobtrack"
	DefaultSSLMode = "disable"
	DefaultPath    = "jobtrack.db"
)

// Options represents database connection configuration options
type Options struct {
	Driver   string
	Host     string
	User     string
	Password string
	DBName   string
	Port     int
	SSLMode  string
	// Path is the SQLite file, ignored for postgres
	Path     string
	LogLevel gormlogger.LogLevel

	// AdminUsername and AdminPassword seed the first admin account. Seeding is skipped without a password.
	AdminUsername string
	AdminPassword string
}

// New creates a new database connection with the given options
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(PostgresDSN(opts))
	case DriverSQLite:
		dialector = sqlite.Open(opts.Path + "?_json=1")
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", opts.Driver)
	}

	// Configure custom logger to ignore record not found errors
	newLogger := gormlogger.New(
		logger.Writer(),
		gormlogger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
		// unique violations surface as gorm.ErrDuplicatedKey on both drivers
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := setupAdminEntities(db, opts.AdminUsername, opts.AdminPassword); err != nil {
		logger.Warnf("Failed to setup admin entities: %v", err)
	}

	return db, nil
}

// PostgresDSN builds the key/value connection string for the postgres driver
func PostgresDSN(opts Options) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, opts.SSLMode)
}

// PostgresURL builds the URL form of the connection string used by the SQL migrations
func PostgresURL(opts Options) string {
	opts = setDefaults(opts)
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		opts.User, opts.Password, opts.Host, opts.Port, opts.DBName, opts.SSLMode)
}

// IsDuplicateKeyError checks if the given error is a unique constraint violation
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return errors.Is(postgres.Dialector{}.Translate(err), gorm.ErrDuplicatedKey)
}

func setDefaults(opts Options) Options {
	if opts.Driver == "" {
		opts.Driver = DriverPostgres
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.User == "" {
		opts.User = DefaultUser
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.DBName == "" {
		opts.DBName = DefaultDBName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.SSLMode == "" {
		opts.SSLMode = DefaultSSLMode
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = gormlogger.Warn
	}
	return opts
}

// Migrate creates or updates the tables for every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Job{},
		&models.User{},
		&models.Machine{},
	)
}

// setupAdminEntities ensures an admin account exists so the first login is possible.
func setupAdminEntities(db *gorm.DB, username, password string) error {
	if password == "" {
		logger.Debug("No admin password configured, skipping admin user seed")
		return nil
	}
	logger.Info("Ensuring admin user exists...")

	adminUser := models.User{Username: username, Name: "Administrator", Role: models.UserRoleAdmin}
	if err := adminUser.SetPassword(password); err != nil {
		return err
	}

	result := db.Where("username = ?", username).Attrs(adminUser).FirstOrCreate(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to ensure admin user exists (%s): %w", username, result.Error)
	}

	logger.Info("Admin user check complete.")
	return nil
}

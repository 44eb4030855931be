package test

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/repos"
)

// NewFileBasedTestDB creates a new file-based SQLite database with the schema and the admin seed.
// It returns the database connection and the path to the temporary directory.
func NewFileBasedTestDB() (*gorm.DB, string, error) {
	tmpDir, err := os.MkdirTemp("", "jobtrack_test")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	database, err := db.New(db.Options{
		Driver:        db.DriverSQLite,
		Path:          filepath.Join(tmpDir, "jobtrack_test.db"),
		LogLevel:      gormlogger.Silent,
		AdminUsername: AdminUsername,
		AdminPassword: AdminPassword,
	})
	if err != nil {
		// Try to clean up the temporary directory, but don't fail if cleanup fails
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			fmt.Printf("Warning: failed to remove temporary directory after database error: %v\n", rmErr)
		}
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return database, tmpDir, nil
}

// CleanupTestDB closes the database connection and removes the temporary directory.
func CleanupTestDB(database *gorm.DB, tmpDir string) {
	sqlDB, err := database.DB()
	if err == nil && sqlDB != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			fmt.Printf("Error closing database connection: %v\n", closeErr)
		}
	}
	if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
		fmt.Printf("Error removing temporary directory: %v\n", rmErr)
	}
}

// SetupTestDB gives the suite a fresh database and its repositories
func SetupTestDB(suite *Suite) {
	dbConn, tmpDir, err := NewFileBasedTestDB()
	suite.Require().NoError(err, "Failed to create file-based database")
	suite.DB = dbConn

	oldCleanup := suite.cleanup
	suite.cleanup = func() {
		if oldCleanup != nil {
			oldCleanup()
		}
		CleanupTestDB(suite.DB, tmpDir)
	}

	suite.JobRepo = repos.NewJobRepository(suite.DB)
	suite.UserRepo = repos.NewUserRepository(suite.DB)
	suite.MachineRepo = repos.NewMachineRepository(suite.DB)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// TestSetup wires real repositories and services over a private in-memory database
type TestSetup struct {
	DB             *gorm.DB
	JobRepo        *repos.JobRepository
	UserRepo       *repos.UserRepository
	MachineRepo    *repos.MachineRepository
	JobService     *Job
	UserService    *User
	MachineService *Machine
	Bus            *events.Bus
	Events         chan events.Event
	Clock          time.Time
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewTestSetup creates test setup with an in-memory database
func NewTestSetup(t *testing.T) *TestSetup {
	// A private (non shared) database per test keeps parallel packages isolated.
	db, err := gorm.Open(sqlite.Open("file::memory:?_json=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection would open a fresh empty database
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.Job{}, &models.User{}, &models.Machine{})
	require.NoError(t, err, "Failed to run migrations")

	ctx, cancel := context.WithCancel(context.Background())
	bus := events.NewBus()
	received := make(chan events.Event, events.EventChannelSize)
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	})
	bus.Start(ctx)

	ts := &TestSetup{
		DB:          db,
		JobRepo:     repos.NewJobRepository(db),
		UserRepo:    repos.NewUserRepository(db),
		MachineRepo: repos.NewMachineRepository(db),
		Bus:         bus,
		Events:      received,
		Clock:       time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		ctx:         ctx,
		cancel:      cancel,
	}
	ts.JobService = NewJobService(ts.JobRepo, ts.MachineRepo, bus, workflow.RejectRework).
		WithClock(func() time.Time { return ts.Clock })
	ts.UserService = NewUserService(ts.UserRepo)
	ts.MachineService = NewMachineService(ts.MachineRepo)
	return ts
}

// CleanUp cleans up resources after test
func (ts *TestSetup) CleanUp() {
	ts.cancel()
	sqlDB, err := ts.DB.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// NextEvent waits for the next published event
func (ts *TestSetup) NextEvent(t *testing.T) events.Event {
	select {
	case e := <-ts.Events:
		return e
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
		return events.Event{}
	}
}

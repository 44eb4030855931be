package test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/app"
	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/pkg/api/v1/client"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// Credentials of the admin account seeded into every test database
const (
	AdminUsername = "admin"
	AdminPassword = "admin-password"
)

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - SQLite database in a temporary directory, admin seeded
//   - Real API server
//   - Real API client
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Server components
	App      *fiber.App
	Server   *httptest.Server
	Services app.Services
	Bus      *events.Bus

	// APIClient has no session token; use LoginAs for an authenticated client
	APIClient *client.APIClient

	// Database components
	DB          *gorm.DB
	JobRepo     *repos.JobRepository
	UserRepo    *repos.UserRepository
	MachineRepo *repos.MachineRepository

	rejectPolicy string

	eventsMu sync.Mutex
	events   []events.Event

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// Option configures a suite before the server starts
type Option func(*Suite)

// WithRejectPolicy selects the reject policy the server runs with
func WithRejectPolicy(policy string) Option {
	return func(s *Suite) {
		s.rejectPolicy = policy
	}
}

// WithTimeout replaces the default suite timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Suite) {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.ctx, s.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// SetS sets the suite instance for this suite
func (s *Suite) SetS(_ suite.TestingSuite) {
	// This method is required by suite.TestingSuite but we don't need to do anything here
}

// SetT sets the testing.T instance for this suite
func (s *Suite) SetT(t *testing.T) {
	s.t = t
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// TearDownSuite tears down the test suite
func (s *Suite) TearDownSuite() {
	s.Cleanup()
}

// NewSuite creates a new test suite with the given options.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T, opts ...Option) *Suite {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	s := &Suite{
		t:            t,
		ctx:          ctx,
		cancelFunc:   cancel,
		rejectPolicy: "rework",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cleanup = func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
	}

	SetupTestDB(s)
	SetupServer(s)

	return s
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		cleanup := s.cleanup
		s.cleanup = nil
		cleanup()
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// LoginAs logs in through the API and returns a client carrying the session token
func (s *Suite) LoginAs(username, password string) *client.APIClient {
	c := s.newClient("")
	_, err := c.Login(s.ctx, types.LoginRequest{Username: username, Password: password})
	s.Require().NoError(err, "login as %s", username)
	return c
}

// CreateUser stores a user with the given role and password "<username>-password"
func (s *Suite) CreateUser(username string, role models.UserRole) models.User {
	user := &models.User{Username: username, Name: username, Role: role}
	s.Require().NoError(user.SetPassword(PasswordFor(username)))
	s.Require().NoError(s.UserRepo.CreateUser(s.ctx, user), "create user %s", username)
	return *user
}

// PasswordFor is the password CreateUser gives username
func PasswordFor(username string) string {
	return username + "-password"
}

// Events returns the audit events published so far
func (s *Suite) Events() []events.Event {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func (s *Suite) recordEvent(_ context.Context, e events.Event) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Retry retries a function until it succeeds or the number of retries is reached.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return
}

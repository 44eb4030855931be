package test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/prefect-field/jobtrack/internal/app"
	"github.com/prefect-field/jobtrack/internal/config"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/pkg/api/v1/client"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// testJWTSecret signs the session tokens of the test server
const testJWTSecret = "integration-test-secret"

// SetupServer configures the test suite with a real API server
func SetupServer(suite *Suite) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: testJWTSecret,
			TokenTTL:  time.Hour,
		},
		Workflow: config.WorkflowConfig{RejectPolicy: suite.rejectPolicy},
	}

	// Events are recorded so tests can assert on the audit trail
	suite.Bus = events.NewBus()
	suite.Bus.SubscribeAll(suite.recordEvent)
	suite.Bus.Start(suite.ctx)

	svc, err := app.NewServices(cfg, suite.DB, suite.Bus)
	suite.Require().NoError(err, "Failed to create services")
	suite.Services = svc
	suite.App = app.New(svc)

	// Create test server using adaptor to convert Fiber app to http.Handler
	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.App))

	suite.APIClient = suite.newClient("")

	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}

func (s *Suite) newClient(token string) *client.APIClient {
	c, err := client.NewClient(&client.Options{
		BaseURL: s.Server.URL,
		Timeout: testClientTimeout,
		Token:   token,
	})
	s.Require().NoError(err, "Failed to create API client")
	return c
}

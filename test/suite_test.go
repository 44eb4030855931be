package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

func TestNewSuite(t *testing.T) {
	s := NewSuite(t)
	defer s.Cleanup()

	// Basic environment checks
	assert.Same(t, t, s.T())
	assert.NotNil(t, s.App, "app should be initialized")
	assert.NotNil(t, s.Server, "server should be initialized")
	assert.NotNil(t, s.APIClient, "API client should be initialized")
	assert.NotNil(t, s.DB, "database should be initialized")
	assert.NotNil(t, s.JobRepo, "job repository should be initialized")
	assert.NotNil(t, s.UserRepo, "user repository should be initialized")
	assert.NotNil(t, s.MachineRepo, "machine repository should be initialized")
	assert.NotNil(t, s.Services.Job, "job service should be initialized")
	assert.NotNil(t, s.Context(), "context should be set")

	health, err := s.APIClient.HealthCheck(s.Context())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestSuite_SeedsAdmin(t *testing.T) {
	s := NewSuite(t)
	defer s.Cleanup()

	admin, err := s.UserRepo.GetUserByUsername(s.Context(), AdminUsername)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword(AdminPassword))

	c := s.LoginAs(AdminUsername, AdminPassword)
	assert.NotEmpty(t, c.AuthToken)
}

func TestSuite_CreateUser(t *testing.T) {
	s := NewSuite(t)
	defer s.Cleanup()

	user := s.CreateUser("carl", models.UserRoleContractor)
	assert.NotZero(t, user.ID)

	c := s.LoginAs("carl", PasswordFor("carl"))
	jobs, err := c.GetJobs(s.Context())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSuite_CleanupIsIdempotent(t *testing.T) {
	s := NewSuite(t)
	s.Cleanup()
	s.Cleanup()
	assert.Error(t, s.Context().Err(), "context is cancelled on cleanup")
}

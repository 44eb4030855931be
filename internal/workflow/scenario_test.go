package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// A job goes from Pending to Approved through the worker's two advances and the admin's approval.
func TestLifecycleScenario(t *testing.T) {
	clock := fixedNow
	opts := Options{Now: func() time.Time { return clock }}

	job := models.Job{
		Model:              gorm.Model{ID: 1},
		WorkOrder:          "WO-1",
		CustomerName:       "Acme",
		Role:               models.UserRoleContractor,
		AssignedContractor: "u1",
		Status:             models.JobStatusPending,
	}
	u1 := Actor{UserID: "u1", Role: models.UserRoleContractor}

	res, err := Transition(job, u1, ActionAdvance, opts)
	require.NoError(t, err)
	res.Apply(&job)
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	require.NotNil(t, job.OnsiteTime)
	onsite := *job.OnsiteTime

	clock = clock.Add(3 * time.Hour)
	res, err = Transition(job, u1, ActionAdvance, opts)
	require.NoError(t, err)
	res.Apply(&job)
	assert.Equal(t, models.JobStatusCompletedPendingApproval, job.Status)
	assert.Equal(t, "Completed", job.ContractorStatus)
	assert.Equal(t, onsite, *job.OnsiteTime)
	assert.Equal(t, clock, *job.StatusTimestamp)

	res, err = Transition(job, admin, ActionApprove, opts)
	require.NoError(t, err)
	res.Apply(&job)
	assert.Equal(t, models.JobStatusApproved, job.Status)
	assert.Equal(t, "Approved", job.ContractorStatus)
	assert.Equal(t, onsite, *job.OnsiteTime)

	_, err = Transition(job, u1, ActionAdvance, opts)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

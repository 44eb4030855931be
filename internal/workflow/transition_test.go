package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func contractorJob(status models.JobStatus) models.Job {
	return models.Job{
		WorkOrder:          "WO-1",
		CustomerName:       "Acme",
		Role:               models.UserRoleContractor,
		AssignedContractor: " u1 ",
		Status:             status,
		ContractorStatus:   status.ContractorStatus(),
	}
}

var (
	worker = Actor{UserID: "u1", Role: models.UserRoleContractor}
	admin  = Actor{UserID: "1", Role: models.UserRoleAdmin}
)

func TestAdvanceFromPending(t *testing.T) {
	job := contractorJob(models.JobStatusPending)

	res, err := Transition(job, worker, ActionAdvance, Options{Now: fixedClock})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, res.Status)
	assert.Equal(t, "In Progress", res.ContractorStatus)
	assert.Equal(t, fixedNow, res.Timestamp)
	require.NotNil(t, res.OnsiteTime)
	assert.Equal(t, fixedNow, *res.OnsiteTime)

	assert.Nil(t, job.OnsiteTime, "input job must not be mutated")
	assert.Equal(t, models.JobStatusPending, job.Status)

	res.Apply(&job)
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	require.NotNil(t, job.OnsiteTime)
	assert.Equal(t, fixedNow, *job.OnsiteTime)
}

func TestAdvanceKeepsExistingOnsiteTime(t *testing.T) {
	earlier := fixedNow.Add(-48 * time.Hour)
	job := contractorJob(models.JobStatusPending)
	job.OnsiteTime = &earlier

	res, err := Transition(job, worker, ActionAdvance, Options{Now: fixedClock})
	require.NoError(t, err)
	assert.Nil(t, res.OnsiteTime)

	res.Apply(&job)
	assert.Equal(t, earlier, *job.OnsiteTime)
}

func TestAdvanceFromInProgress(t *testing.T) {
	onsite := fixedNow.Add(-time.Hour)
	job := contractorJob(models.JobStatusInProgress)
	job.OnsiteTime = &onsite

	res, err := Transition(job, worker, ActionAdvance, Options{Now: fixedClock})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompletedPendingApproval, res.Status)
	assert.Equal(t, "Completed", res.ContractorStatus)
	assert.Nil(t, res.OnsiteTime)

	res.Apply(&job)
	assert.Equal(t, onsite, *job.OnsiteTime)
}

func TestAdvanceClosedJobsAlwaysInvalid(t *testing.T) {
	closed := []models.JobStatus{
		models.JobStatusCompletedPendingApproval,
		models.JobStatusApproved,
		models.JobStatusRejected,
		models.JobStatusUnknown,
	}
	actors := []Actor{worker, admin, {UserID: "someone-else", Role: models.UserRoleTechnician}, {}}

	for _, status := range closed {
		for _, actor := range actors {
			t.Run(status.String()+"/"+actor.Role.String(), func(t *testing.T) {
				job := contractorJob(status)
				before := job

				res, err := Transition(job, actor, ActionAdvance, Options{Now: fixedClock})
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
				assert.Equal(t, Result{}, res)
				assert.Equal(t, before, job)
			})
		}
	}
}

func TestAdvanceRequiresAssignee(t *testing.T) {
	tests := []struct {
		name  string
		job   models.Job
		actor Actor
		ok    bool
	}{
		{
			name:  "assigned contractor",
			job:   contractorJob(models.JobStatusPending),
			actor: worker,
			ok:    true,
		},
		{
			name:  "other contractor",
			job:   contractorJob(models.JobStatusPending),
			actor: Actor{UserID: "u2", Role: models.UserRoleContractor},
		},
		{
			name:  "technician id matches contractor field",
			job:   contractorJob(models.JobStatusPending),
			actor: Actor{UserID: "u1", Role: models.UserRoleTechnician},
		},
		{
			name:  "admin cannot advance",
			job:   contractorJob(models.JobStatusPending),
			actor: admin,
		},
		{
			name: "assigned technician",
			job: models.Job{
				Role:         models.UserRoleTechnician,
				AssignedTech: "t9",
				Status:       models.JobStatusInProgress,
			},
			actor: Actor{UserID: " t9", Role: models.UserRoleTechnician},
			ok:    true,
		},
		{
			name:  "blank user",
			job:   models.Job{Status: models.JobStatusPending},
			actor: Actor{Role: models.UserRoleContractor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transition(tt.job, tt.actor, ActionAdvance, Options{Now: fixedClock})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrForbidden), "got %v", err)
		})
	}
}

func TestApproveAndRejectRequireAdmin(t *testing.T) {
	statuses := []models.JobStatus{
		models.JobStatusPending,
		models.JobStatusInProgress,
		models.JobStatusCompletedPendingApproval,
		models.JobStatusApproved,
		models.JobStatusRejected,
	}
	nonAdmins := []Actor{
		worker,
		{UserID: "t1", Role: models.UserRoleTechnician},
		{UserID: "x"},
	}

	for _, action := range []Action{ActionApprove, ActionReject} {
		for _, status := range statuses {
			for _, actor := range nonAdmins {
				_, err := Transition(contractorJob(status), actor, action, Options{Now: fixedClock})
				assert.True(t, errors.Is(err, ErrForbidden), "%s on %s by %s: got %v", action, status, actor.Role, err)
			}
		}
	}
}

func TestApprove(t *testing.T) {
	res, err := Transition(contractorJob(models.JobStatusCompletedPendingApproval), admin, ActionApprove, Options{Now: fixedClock})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApproved, res.Status)
	assert.Equal(t, "Approved", res.ContractorStatus)
	assert.Equal(t, fixedNow, res.Timestamp)

	for _, status := range []models.JobStatus{models.JobStatusPending, models.JobStatusInProgress, models.JobStatusApproved, models.JobStatusRejected} {
		_, err := Transition(contractorJob(status), admin, ActionApprove, Options{Now: fixedClock})
		assert.True(t, errors.Is(err, ErrInvalidTransition), "approve on %s: got %v", status, err)
	}
}

func TestRejectPolicies(t *testing.T) {
	onsite := fixedNow.Add(-time.Hour)
	job := contractorJob(models.JobStatusCompletedPendingApproval)
	job.OnsiteTime = &onsite

	res, err := Transition(job, admin, ActionReject, Options{Now: fixedClock})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, res.Status, "rework is the default")
	assert.Equal(t, "Pending", res.ContractorStatus)

	reworked := job
	res.Apply(&reworked)
	assert.Equal(t, onsite, *reworked.OnsiteTime, "rework keeps the original onsite time")

	res, err = Transition(job, admin, ActionReject, Options{Now: fixedClock, RejectPolicy: RejectTerminal})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRejected, res.Status)
	assert.Equal(t, "Rejected", res.ContractorStatus)

	_, err = Transition(contractorJob(models.JobStatusInProgress), admin, ActionReject, Options{})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestUnknownAction(t *testing.T) {
	_, err := Transition(contractorJob(models.JobStatusPending), worker, Action("teleport"), Options{})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestDefaultClockIsUTC(t *testing.T) {
	res, err := Transition(contractorJob(models.JobStatusPending), worker, ActionAdvance, Options{})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, res.Timestamp.Location())
	assert.WithinDuration(t, time.Now(), res.Timestamp, time.Minute)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Approve ")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("complete")
	assert.Error(t, err)
}

func TestParseRejectPolicy(t *testing.T) {
	p, err := ParseRejectPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RejectRework, p)

	p, err = ParseRejectPolicy("TERMINAL")
	require.NoError(t, err)
	assert.Equal(t, RejectTerminal, p)

	_, err = ParseRejectPolicy("delete")
	assert.Error(t, err)
}

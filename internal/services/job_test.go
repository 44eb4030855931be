package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

var (
	testAdmin      = workflow.Actor{UserID: "1", Role: models.UserRoleAdmin}
	testContractor = workflow.Actor{UserID: "2", Role: models.UserRoleContractor}
	testTech       = workflow.Actor{UserID: "3", Role: models.UserRoleTechnician}
)

func contractorJobRequest(workOrder string) types.JobRequest {
	return types.JobRequest{
		WorkOrder:          workOrder,
		CustomerName:       "Acme Dairy",
		WorkRequired:       "Annual service",
		Role:               models.UserRoleContractor,
		AssignedContractor: testContractor.UserID,
	}
}

func TestJobService_CreateJob(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	assert.NotZero(t, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, "Pending", job.ContractorStatus)
	assert.Equal(t, ts.Clock, *job.StatusTimestamp)
	assert.Nil(t, job.OnsiteTime)

	e := ts.NextEvent(t)
	assert.Equal(t, events.EventJobCreated, e.Type)
	assert.Equal(t, job.ID, e.JobID)

	_, err = ts.JobService.CreateJob(ts.ctx, testContractor, contractorJobRequest("WO-2"))
	assert.True(t, errors.Is(err, workflow.ErrForbidden))

	req := contractorJobRequest("")
	_, err = ts.JobService.CreateJob(ts.ctx, testAdmin, req)
	var verr *workflow.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "work_order", verr.Field)

	req = contractorJobRequest("WO-3")
	req.Role = models.UserRoleAdmin
	_, err = ts.JobService.CreateJob(ts.ctx, testAdmin, req)
	assert.True(t, errors.Is(err, workflow.ErrValidation))
}

func TestJobService_ListAndGetAreProjected(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	mine, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	techReq := contractorJobRequest("WO-2")
	techReq.Role = models.UserRoleTechnician
	techReq.AssignedContractor = ""
	techReq.AssignedTech = testTech.UserID
	other, err := ts.JobService.CreateJob(ts.ctx, testAdmin, techReq)
	require.NoError(t, err)

	all, err := ts.JobService.ListJobs(ts.ctx, testAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	jobs, err := ts.JobService.ListJobs(ts.ctx, testContractor)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, mine.ID, jobs[0].ID)

	jobs, err = ts.JobService.ListJobs(ts.ctx, workflow.Actor{UserID: "9"})
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)

	_, err = ts.JobService.GetJob(ts.ctx, testContractor, other.ID)
	assert.True(t, errors.Is(err, workflow.ErrNotFound), "jobs outside the projection look missing")

	got, err := ts.JobService.GetJob(ts.ctx, testTech, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "WO-2", got.WorkOrder)

	_, err = ts.JobService.GetJob(ts.ctx, testAdmin, 999)
	assert.True(t, errors.Is(err, workflow.ErrNotFound))
}

func TestJobService_ListIncludesJobsPastOnePage(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	others := make([]models.Job, models.DefaultLimit)
	for i := range others {
		others[i] = models.Job{
			WorkOrder:          fmt.Sprintf("WO-%04d", i),
			CustomerName:       "Acme Dairy",
			Role:               models.UserRoleContractor,
			AssignedContractor: "99",
		}
	}
	require.NoError(t, ts.DB.CreateInBatches(&others, 100).Error)
	mine := &models.Job{
		WorkOrder:          "WO-MINE",
		CustomerName:       "Acme Dairy",
		Role:               models.UserRoleContractor,
		AssignedContractor: testContractor.UserID,
	}
	require.NoError(t, ts.JobRepo.Create(ts.ctx, mine))

	all, err := ts.JobService.ListJobs(ts.ctx, testAdmin)
	require.NoError(t, err)
	assert.Len(t, all, models.DefaultLimit+1)

	jobs, err := ts.JobService.ListJobs(ts.ctx, testContractor)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, mine.ID, jobs[0].ID)
}

func TestJobService_UpdateOfDeletedJob(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	stale, err := ts.JobRepo.GetByID(ts.ctx, job.ID)
	require.NoError(t, err)
	require.NoError(t, ts.JobService.DeleteJob(ts.ctx, testAdmin, job.ID))

	res, err := workflow.Transition(*stale, testContractor, workflow.ActionAdvance, workflow.Options{})
	require.NoError(t, err)
	res.Apply(stale)
	err = ts.JobRepo.Update(ts.ctx, stale)
	assert.Error(t, err)

	all, err := ts.JobService.ListJobs(ts.ctx, testAdmin)
	require.NoError(t, err)
	assert.Empty(t, all, "a late write does not bring the job back")

	_, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrNotFound))
}

func TestJobService_Lifecycle(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	ts.NextEvent(t)

	// admin cannot advance on behalf of the worker
	_, err = ts.JobService.Advance(ts.ctx, testAdmin, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrForbidden))

	onsiteAt := ts.Clock
	job, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	require.NotNil(t, job.OnsiteTime)
	assert.True(t, onsiteAt.Equal(*job.OnsiteTime))

	e := ts.NextEvent(t)
	assert.Equal(t, events.EventJobTransitioned, e.Type)
	assert.Equal(t, "advance", e.Action)
	assert.Equal(t, "Pending", e.FromStatus)
	assert.Equal(t, "In Progress", e.ToStatus)

	// approval before completion is an invalid transition
	_, err = ts.JobService.Approve(ts.ctx, testAdmin, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	ts.Clock = ts.Clock.Add(2 * time.Hour)
	job, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompletedPendingApproval, job.Status)
	assert.Equal(t, "Completed", job.ContractorStatus)
	assert.True(t, onsiteAt.Equal(*job.OnsiteTime), "onsite time is set once")
	ts.NextEvent(t)

	_, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	_, err = ts.JobService.Approve(ts.ctx, testContractor, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrForbidden))

	job, err = ts.JobService.Approve(ts.ctx, testAdmin, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApproved, job.Status)

	stored, err := ts.JobRepo.GetByID(ts.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusApproved, stored.Status)
	assert.Equal(t, "Approved", stored.ContractorStatus)
}

func TestJobService_RejectPolicies(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	complete := func() *models.Job {
		job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-R"))
		require.NoError(t, err)
		_, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
		require.NoError(t, err)
		job, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
		require.NoError(t, err)
		return job
	}

	job := complete()
	job, err := ts.JobService.Reject(ts.ctx, testAdmin, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.NotNil(t, job.OnsiteTime, "rework keeps the original onsite time")

	terminal := NewJobService(ts.JobRepo, ts.MachineRepo, nil, workflow.RejectTerminal)
	job = complete()
	job, err = terminal.Reject(ts.ctx, testAdmin, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRejected, job.Status)

	_, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	assert.True(t, errors.Is(err, workflow.ErrInvalidTransition))
}

func TestJobService_SubmitCompletion(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	_, err := ts.MachineService.Create(ts.ctx, types.CreateMachineRequest{MachineID: "M-1", MachineType: "Robot"})
	require.NoError(t, err)

	job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	job, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	require.NoError(t, err)
	onsite := *job.OnsiteTime

	form := workflow.CompletionForm{
		CustomerName:   "Acme Dairy Ltd",
		ContactName:    "Jo",
		WorkPerformed:  "Replaced liners",
		CompletionDate: "2025-03-14",
		TravelTime:     "1",
		LabourTime:     "2.5",
		NoteCount:      "1",
		Status:         "Approved",
		Checklist:      models.Checklist{Tested: true},
		Machines: []models.MachineUsage{
			{MachineID: "M-1", Notes: "first"},
			{MachineID: "M-1", Notes: "again"},
		},
	}

	_, err = ts.JobService.SubmitCompletion(ts.ctx, testTech, job.ID, form)
	assert.True(t, errors.Is(err, workflow.ErrForbidden))

	bad := form
	bad.CompletionDate = ""
	_, err = ts.JobService.SubmitCompletion(ts.ctx, testContractor, job.ID, bad)
	assert.True(t, errors.Is(err, workflow.ErrValidation))
	unchanged, err := ts.JobRepo.GetByID(ts.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, unchanged.Status, "a rejected submission writes nothing")

	done, err := ts.JobService.SubmitCompletion(ts.ctx, testContractor, job.ID, form)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompletedPendingApproval, done.Status)
	assert.Equal(t, "Completed", done.ContractorStatus)
	assert.Equal(t, "Acme Dairy Ltd", done.CustomerName)
	assert.Equal(t, 2.5, done.LabourTime)
	assert.Equal(t, []models.MachineUsage{{MachineID: "M-1", Notes: "first"}}, done.Machines)
	assert.True(t, onsite.Equal(*done.OnsiteTime))

	stored, err := ts.JobRepo.GetByID(ts.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, done.Machines, stored.Machines)
	assert.Equal(t, models.Checklist{Tested: true}, stored.Checklist)

	approved, err := ts.JobService.Approve(ts.ctx, testAdmin, job.ID)
	require.NoError(t, err)
	_, err = ts.JobService.SubmitCompletion(ts.ctx, testContractor, approved.ID, form)
	assert.True(t, errors.Is(err, workflow.ErrInvalidTransition))
}

func TestJobService_UpdateAndDelete(t *testing.T) {
	ts := NewTestSetup(t)
	defer ts.CleanUp()

	job, err := ts.JobService.CreateJob(ts.ctx, testAdmin, contractorJobRequest("WO-1"))
	require.NoError(t, err)
	job, err = ts.JobService.Advance(ts.ctx, testContractor, job.ID)
	require.NoError(t, err)

	req := types.JobRequestFrom(*job)
	req.CustomerAddress = "1 New Road"
	req.Role = models.UserRoleTechnician
	req.AssignedTech = testTech.UserID

	updated, err := ts.JobService.UpdateJob(ts.ctx, testAdmin, job.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "1 New Road", updated.CustomerAddress)
	assert.Equal(t, models.JobStatusInProgress, updated.Status, "update never changes the status")
	assert.True(t, job.OnsiteTime.Equal(*updated.OnsiteTime))

	_, err = ts.JobService.UpdateJob(ts.ctx, testContractor, job.ID, req)
	assert.True(t, errors.Is(err, workflow.ErrForbidden))
	_, err = ts.JobService.UpdateJob(ts.ctx, testAdmin, 999, req)
	assert.True(t, errors.Is(err, workflow.ErrNotFound))

	assert.True(t, errors.Is(ts.JobService.DeleteJob(ts.ctx, testTech, job.ID), workflow.ErrForbidden))
	require.NoError(t, ts.JobService.DeleteJob(ts.ctx, testAdmin, job.ID))
	assert.True(t, errors.Is(ts.JobService.DeleteJob(ts.ctx, testAdmin, job.ID), workflow.ErrNotFound))
}

func TestJobService_StoreUnavailable(t *testing.T) {
	ts := NewTestSetup(t)
	ts.CleanUp()

	_, err := ts.JobService.ListJobs(ts.ctx, testAdmin)
	assert.True(t, errors.Is(err, workflow.ErrStoreUnavailable), "got %v", err)
}

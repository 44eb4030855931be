package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

var catalog = []models.Machine{
	{MachineID: "M-1", MachineType: "Robot"},
	{MachineID: "M-2", MachineType: "Pump"},
}

func validForm() CompletionForm {
	return CompletionForm{
		CustomerName:   " Acme Dairy ",
		ContactName:    "Jo",
		WorkPerformed:  "Replaced liners",
		CompletionDate: "2025-03-14",
		TravelTime:     "1.5",
		LabourTime:     "2",
		NoteCount:      "3",
		Status:         "Approved",
		Checklist:      models.Checklist{Tested: true, SoftwareUpdated: true},
		Signature:      "data:image/png;base64,iVBORw0KGgo=",
		Machines: []models.MachineUsage{
			{MachineID: "M-1", Notes: "serviced", PartsUsed: "liners"},
		},
	}
}

func TestBuildCompletionPayload(t *testing.T) {
	payload, err := BuildCompletionPayload(validForm(), contractorJob(models.JobStatusInProgress), catalog)
	require.NoError(t, err)

	assert.Equal(t, "Acme Dairy", payload.CustomerName)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), payload.CompletionDate)
	assert.Equal(t, 1.5, payload.TravelTime)
	assert.Equal(t, 2.0, payload.LabourTime)
	assert.Equal(t, 3, payload.NoteCount)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", payload.Signature, "signature is carried as is")
	assert.Equal(t, models.JobStatusCompletedPendingApproval, payload.Status, "form status is overridden")
	assert.Equal(t, "Completed", payload.ContractorStatus)
	assert.Len(t, payload.Machines, 1)
}

func TestBuildCompletionPayloadRequiredFields(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*CompletionForm)
	}{
		{"customer_name", func(f *CompletionForm) { f.CustomerName = "  " }},
		{"contact_name", func(f *CompletionForm) { f.ContactName = "" }},
		{"work_performed", func(f *CompletionForm) { f.WorkPerformed = "" }},
		{"completion_date", func(f *CompletionForm) { f.CompletionDate = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, err := BuildCompletionPayload(form, models.Job{}, catalog)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBuildCompletionPayloadNumbers(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CompletionForm)
		field   string
		wantErr bool
	}{
		{name: "blank numbers are zero", mutate: func(f *CompletionForm) { f.TravelTime, f.LabourTime, f.NoteCount = "", " ", "" }},
		{name: "text travel", mutate: func(f *CompletionForm) { f.TravelTime = "an hour" }, field: "travel_time", wantErr: true},
		{name: "negative labour", mutate: func(f *CompletionForm) { f.LabourTime = "-1" }, field: "labour_time", wantErr: true},
		{name: "nan labour", mutate: func(f *CompletionForm) { f.LabourTime = "NaN" }, field: "labour_time", wantErr: true},
		{name: "fractional notes", mutate: func(f *CompletionForm) { f.NoteCount = "2.5" }, field: "note_count", wantErr: true},
		{name: "negative notes", mutate: func(f *CompletionForm) { f.NoteCount = "-2" }, field: "note_count", wantErr: true},
		{name: "bad date", mutate: func(f *CompletionForm) { f.CompletionDate = "14/03/2025" }, field: "completion_date", wantErr: true},
		{name: "rfc3339 date", mutate: func(f *CompletionForm) { f.CompletionDate = "2025-03-14T10:00:00+02:00" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, err := BuildCompletionPayload(form, models.Job{}, catalog)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBuildCompletionPayloadMachines(t *testing.T) {
	t.Run("duplicate ids keep the first entry", func(t *testing.T) {
		form := validForm()
		form.Machines = []models.MachineUsage{
			{MachineID: "M-1", Notes: "first"},
			{MachineID: "M-2", Notes: "pump"},
			{MachineID: " M-1", Notes: "second"},
		}

		payload, err := BuildCompletionPayload(form, models.Job{}, catalog)
		require.NoError(t, err)
		require.Len(t, payload.Machines, 2)
		assert.Equal(t, "first", payload.Machines[0].Notes)
		assert.Equal(t, "M-2", payload.Machines[1].MachineID)
	})

	t.Run("unknown machine", func(t *testing.T) {
		form := validForm()
		form.Machines = []models.MachineUsage{{MachineID: "M-404"}}

		_, err := BuildCompletionPayload(form, models.Job{}, catalog)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "machines", verr.Field)
	})

	t.Run("blank machine id", func(t *testing.T) {
		form := validForm()
		form.Machines = []models.MachineUsage{{Notes: "?"}}

		_, err := BuildCompletionPayload(form, models.Job{}, catalog)
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("no machines", func(t *testing.T) {
		form := validForm()
		form.Machines = nil

		payload, err := BuildCompletionPayload(form, models.Job{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, payload.Machines)
		assert.Empty(t, payload.Machines)
	})
}

func TestCompletionPayloadApplyReplacesWholesale(t *testing.T) {
	onsite := fixedNow.Add(-time.Hour)
	job := contractorJob(models.JobStatusInProgress)
	job.OnsiteTime = &onsite
	job.Checklist = models.Checklist{NoMissingScrews: true, ApprovedByManagement: true}
	job.Machines = []models.MachineUsage{{MachineID: "M-2", Notes: "old"}}
	job.NoteCount = 9

	form := validForm()
	form.NoteCount = ""
	payload, err := BuildCompletionPayload(form, job, catalog)
	require.NoError(t, err)

	payload.Apply(&job)
	assert.Equal(t, models.Checklist{Tested: true, SoftwareUpdated: true}, job.Checklist)
	assert.Equal(t, []models.MachineUsage{{MachineID: "M-1", Notes: "serviced", PartsUsed: "liners"}}, job.Machines)
	assert.Equal(t, 0, job.NoteCount)
	assert.Equal(t, onsite, *job.OnsiteTime, "completion leaves the onsite time alone")
}

func TestComplete(t *testing.T) {
	payload, err := BuildCompletionPayload(validForm(), models.Job{}, catalog)
	require.NoError(t, err)

	for _, status := range []models.JobStatus{models.JobStatusPending, models.JobStatusInProgress, models.JobStatusCompletedPendingApproval} {
		res, err := Complete(contractorJob(status), worker, payload, Options{Now: fixedClock})
		require.NoError(t, err, status.String())
		assert.Equal(t, models.JobStatusCompletedPendingApproval, res.Status)
		assert.Equal(t, "Completed", res.ContractorStatus)
		assert.Equal(t, fixedNow, res.Timestamp)
	}

	_, err = Complete(contractorJob(models.JobStatusInProgress), admin, payload, Options{Now: fixedClock})
	assert.NoError(t, err, "admins may close out on behalf of a worker")

	_, err = Complete(contractorJob(models.JobStatusInProgress), Actor{UserID: "u2", Role: models.UserRoleContractor}, payload, Options{})
	assert.True(t, errors.Is(err, ErrForbidden))

	for _, status := range []models.JobStatus{models.JobStatusApproved, models.JobStatusRejected} {
		_, err = Complete(contractorJob(status), worker, payload, Options{})
		assert.True(t, errors.Is(err, ErrInvalidTransition), status.String())
	}
}

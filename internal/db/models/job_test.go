package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name             string
		status           JobStatus
		stringValue      string
		contractorStatus string
		terminal         bool
	}{
		{
			name:             "Unknown status",
			status:           JobStatusUnknown,
			stringValue:      "unknown",
			contractorStatus: "unknown",
		},
		{
			name:             "Pending status",
			status:           JobStatusPending,
			stringValue:      "Pending",
			contractorStatus: "Pending",
		},
		{
			name:             "In progress status",
			status:           JobStatusInProgress,
			stringValue:      "In Progress",
			contractorStatus: "In Progress",
		},
		{
			name:             "Completed pending approval status",
			status:           JobStatusCompletedPendingApproval,
			stringValue:      "Completed - Pending Approval",
			contractorStatus: "Completed",
		},
		{
			name:             "Approved status",
			status:           JobStatusApproved,
			stringValue:      "Approved",
			contractorStatus: "Approved",
			terminal:         true,
		},
		{
			name:             "Rejected status",
			status:           JobStatusRejected,
			stringValue:      "Rejected",
			contractorStatus: "Rejected",
			terminal:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stringValue, tt.status.String())
			assert.Equal(t, tt.contractorStatus, tt.status.ContractorStatus())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())

			parsed, err := ParseJobStatus(tt.stringValue)
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)

			data, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.JSONEq(t, `"`+tt.stringValue+`"`, string(data))

			var decoded JobStatus
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.status, decoded)
		})
	}

	t.Run("Out of range status", func(t *testing.T) {
		assert.Equal(t, "unknown", JobStatus(42).String())
	})

	t.Run("Invalid status string", func(t *testing.T) {
		status, err := ParseJobStatus("Done")
		assert.Error(t, err)
		assert.Equal(t, JobStatusUnknown, status)

		var decoded JobStatus
		assert.Error(t, json.Unmarshal([]byte(`"Done"`), &decoded))
		assert.Error(t, json.Unmarshal([]byte(`3`), &decoded))
	})
}

func TestJob_Validate(t *testing.T) {
	valid := Job{
		WorkOrder:          "WO-1001",
		CustomerName:       "Acme Dairy",
		Role:               UserRoleContractor,
		AssignedContractor: "7",
	}

	tests := []struct {
		name    string
		mutate  func(*Job)
		wantErr string
	}{
		{name: "valid", mutate: func(*Job) {}},
		{name: "unassigned role", mutate: func(j *Job) { j.Role = UserRoleUnknown }},
		{name: "missing work order", mutate: func(j *Job) { j.WorkOrder = "" }, wantErr: "work order"},
		{name: "missing customer", mutate: func(j *Job) { j.CustomerName = "" }, wantErr: "customer name"},
		{name: "admin role", mutate: func(j *Job) { j.Role = UserRoleAdmin }, wantErr: "contractor or technician"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid
			tt.mutate(&job)
			err := job.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJob_BeforeCreateDefaults(t *testing.T) {
	job := &Job{WorkOrder: "WO-1", CustomerName: "Acme"}
	require.NoError(t, job.BeforeCreate(nil))
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "Pending", job.ContractorStatus)

	completed := &Job{WorkOrder: "WO-2", CustomerName: "Acme", Status: JobStatusCompletedPendingApproval}
	require.NoError(t, completed.BeforeCreate(nil))
	assert.Equal(t, "Completed", completed.ContractorStatus)
}

func TestJob_JSONShape(t *testing.T) {
	job := Job{
		WorkOrder:    "WO-1",
		CustomerName: "Acme",
		Role:         UserRoleTechnician,
		AssignedTech: "3",
		Status:       JobStatusInProgress,
		Machines:     []MachineUsage{{MachineID: "M-1", Notes: "serviced", PartsUsed: "belt"}},
		Checklist:    Checklist{Tested: true},
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "In Progress", raw["status"])
	assert.Equal(t, "technician", raw["role"])
	assert.Equal(t, "3", raw["assigned_tech"])
	assert.NotContains(t, raw, "onsite_time", "unset timestamps are omitted")

	checklist, ok := raw["checklist"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, checklist["tested"])

	machines, ok := raw["machines"].([]interface{})
	require.True(t, ok)
	require.Len(t, machines, 1)
	assert.Equal(t, "M-1", machines[0].(map[string]interface{})["machine_id"])
}

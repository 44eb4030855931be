package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for the job model
const (
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
	// JobStatusField is the database field name for the job status
	JobStatusField = "status"
)

// JobStatus represents where a job is in its lifecycle
type JobStatus int

// Job status constants
const (
	// JobStatusUnknown represents an unknown or invalid job status
	JobStatusUnknown JobStatus = iota
	// JobStatusPending indicates the job is waiting for the assigned worker
	JobStatusPending
	// JobStatusInProgress indicates the worker is on site
	JobStatusInProgress
	// JobStatusCompletedPendingApproval indicates the worker finished and an admin must decide
	JobStatusCompletedPendingApproval
	// JobStatusApproved indicates an admin accepted the work
	JobStatusApproved
	// JobStatusRejected indicates an admin rejected the work for good
	JobStatusRejected
)

var jobStatusNames = []string{
	"unknown",
	"Pending",
	"In Progress",
	"Completed - Pending Approval",
	"Approved",
	"Rejected",
}

// ContractorStatusCompleted is what the performing worker sees once they close out a job
const ContractorStatusCompleted = "Completed"

func (s JobStatus) String() string {
	if s < 0 || int(s) >= len(jobStatusNames) {
		return jobStatusNames[JobStatusUnknown]
	}
	return jobStatusNames[s]
}

// ContractorStatus returns the worker-facing mirror of the status.
// Completed - Pending Approval collapses to Completed; every other status mirrors itself.
func (s JobStatus) ContractorStatus() string {
	if s == JobStatusCompletedPendingApproval {
		return ContractorStatusCompleted
	}
	return s.String()
}

// IsTerminal reports whether no worker or admin action can move the job any further
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusApproved || s == JobStatusRejected
}

// ParseJobStatus converts a display string to a JobStatus
func ParseJobStatus(str string) (JobStatus, error) {
	for i, name := range jobStatusNames {
		if name == str {
			return JobStatus(i), nil
		}
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Checklist is the close-out checklist ticked by the worker
type Checklist struct {
	NoMissingScrews      bool `json:"no_missing_screws"`
	SoftwareUpdated      bool `json:"software_updated"`
	Tested               bool `json:"tested"`
	ApprovedByManagement bool `json:"approved_by_management"`
}

// MachineUsage records the work done on one catalog machine during a job
type MachineUsage struct {
	MachineID string `json:"machine_id"`
	Notes     string `json:"notes"`
	PartsUsed string `json:"parts_used"`
}

// Job is a unit of field work tracked through the status lifecycle
type Job struct {
	gorm.Model
	WorkOrder       string `json:"work_order" gorm:"not null;index"`
	CustomerName    string `json:"customer_name" gorm:"not null"`
	CustomerAddress string `json:"customer_address"`
	ContactName     string `json:"contact_name"`
	WorkRequired    string `json:"work_required" gorm:"type:text"`

	// Assignment
	Role               UserRole   `json:"role" gorm:"index"`
	AssignedContractor string     `json:"assigned_contractor" gorm:"index"`
	AssignedTech       string     `json:"assigned_tech" gorm:"index"`
	Contractor         string     `json:"contractor"`
	RequiredDate       *time.Time `json:"required_date,omitempty"`

	// Lifecycle
	Status           JobStatus  `json:"status" gorm:"index"`
	ContractorStatus string     `json:"contractor_status"`
	StatusTimestamp  *time.Time `json:"status_timestamp,omitempty"`
	OnsiteTime       *time.Time `json:"onsite_time,omitempty"`

	// Completion payload
	WorkPerformed  string         `json:"work_performed" gorm:"type:text"`
	TravelTime     float64        `json:"travel_time"`
	LabourTime     float64        `json:"labour_time"`
	NoteCount      int            `json:"note_count"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
	Checklist      Checklist      `json:"checklist" gorm:"embedded;embeddedPrefix:checklist_"`
	Signature      string         `json:"signature,omitempty" gorm:"type:text"`
	Machines       []MachineUsage `json:"machines" gorm:"type:text;serializer:json"`
}

// Validate ensures that the job data is valid
func (j *Job) Validate() error {
	if j.WorkOrder == "" {
		return fmt.Errorf("work order cannot be empty")
	}
	if j.CustomerName == "" {
		return fmt.Errorf("customer name cannot be empty")
	}
	if j.Role != UserRoleUnknown && !j.Role.IsWorker() {
		return fmt.Errorf("job role must be contractor or technician, got %s", j.Role)
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new job
func (j *Job) BeforeCreate(_ *gorm.DB) error {
	if j.Status == JobStatusUnknown {
		j.Status = JobStatusPending
	}
	if j.ContractorStatus == "" {
		j.ContractorStatus = j.Status.ContractorStatus()
	}
	return j.Validate()
}

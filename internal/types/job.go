package types

import (
	"strings"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// JobRequest carries the descriptive and assignment fields an admin sets on create or update.
// Lifecycle and completion fields are not part of it; they change only through transitions.
type JobRequest struct {
	WorkOrder          string          `json:"work_order"`
	CustomerName       string          `json:"customer_name"`
	CustomerAddress    string          `json:"customer_address"`
	ContactName        string          `json:"contact_name"`
	WorkRequired       string          `json:"work_required"`
	Role               models.UserRole `json:"role"`
	AssignedContractor string          `json:"assigned_contractor"`
	AssignedTech       string          `json:"assigned_tech"`
	Contractor         string          `json:"contractor"`
	RequiredDate       *time.Time      `json:"required_date,omitempty"`
}

// Validate checks the presence rules for a job request
func (r JobRequest) Validate() error {
	if strings.TrimSpace(r.WorkOrder) == "" {
		return workflow.NewValidationError("work_order", "is required")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return workflow.NewValidationError("customer_name", "is required")
	}
	if r.Role != models.UserRoleUnknown && !r.Role.IsWorker() {
		return workflow.NewValidationError("role", "must be contractor or technician")
	}
	return nil
}

// ApplyTo copies the request fields onto job
func (r JobRequest) ApplyTo(job *models.Job) {
	job.WorkOrder = strings.TrimSpace(r.WorkOrder)
	job.CustomerName = strings.TrimSpace(r.CustomerName)
	job.CustomerAddress = r.CustomerAddress
	job.ContactName = r.ContactName
	job.WorkRequired = r.WorkRequired
	job.Role = r.Role
	job.AssignedContractor = strings.TrimSpace(r.AssignedContractor)
	job.AssignedTech = strings.TrimSpace(r.AssignedTech)
	job.Contractor = r.Contractor
	if r.RequiredDate != nil {
		d := r.RequiredDate.UTC()
		job.RequiredDate = &d
	} else {
		job.RequiredDate = nil
	}
}

// JobRequestFrom builds a request holding the job's current descriptive fields
func JobRequestFrom(job models.Job) JobRequest {
	return JobRequest{
		WorkOrder:          job.WorkOrder,
		CustomerName:       job.CustomerName,
		CustomerAddress:    job.CustomerAddress,
		ContactName:        job.ContactName,
		WorkRequired:       job.WorkRequired,
		Role:               job.Role,
		AssignedContractor: job.AssignedContractor,
		AssignedTech:       job.AssignedTech,
		Contractor:         job.Contractor,
		RequiredDate:       job.RequiredDate,
	}
}

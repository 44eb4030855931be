package types

import (
	"strings"

	"github.com/prefect-field/jobtrack/internal/workflow"
)

// CreateMachineRequest adds an entry to the machine catalog
type CreateMachineRequest struct {
	MachineID   string `json:"machine_id"`
	MachineType string `json:"machine_type"`
	Model       string `json:"model"`
}

// Validate checks the presence rules for a machine request
func (r CreateMachineRequest) Validate() error {
	if strings.TrimSpace(r.MachineID) == "" {
		return workflow.NewValidationError("machine_id", "is required")
	}
	return nil
}

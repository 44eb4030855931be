package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Machine is a catalog entry that workers can attach to a job when closing it out
type Machine struct {
	gorm.Model
	MachineID   string `json:"machine_id" gorm:"not null;uniqueIndex"`
	MachineType string `json:"machine_type"`
	ModelName   string `json:"model" gorm:"column:model"`
}

// Validate ensures that the machine data is valid
func (m *Machine) Validate() error {
	if strings.TrimSpace(m.MachineID) == "" {
		return fmt.Errorf("machine id cannot be empty")
	}
	return nil
}

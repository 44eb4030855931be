package services

import (
	"context"
	"errors"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// Machine provides access to the machine catalog
type Machine struct {
	repo *repos.MachineRepository
}

// NewMachineService creates a new machine service instance
func NewMachineService(repo *repos.MachineRepository) *Machine {
	return &Machine{repo: repo}
}

// List returns the whole catalog
func (s *Machine) List(ctx context.Context) ([]models.Machine, error) {
	machines, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return machines, nil
}

// Create adds a machine to the catalog
func (s *Machine) Create(ctx context.Context, req types.CreateMachineRequest) (*models.Machine, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	machine := &models.Machine{
		MachineID:   req.MachineID,
		MachineType: req.MachineType,
		ModelName:   req.Model,
	}
	if err := s.repo.Create(ctx, machine); err != nil {
		if errors.Is(err, repos.ErrMachineExists) {
			return nil, workflow.NewValidationError("machine_id", "already exists")
		}
		return nil, storeError(err)
	}
	return machine, nil
}

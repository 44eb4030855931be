package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db"
	"github.com/prefect-field/jobtrack/internal/db/models"
)

// ErrMachineExists is returned when a catalog id is already registered
var ErrMachineExists = errors.New("machine already exists")

// MachineRepository provides access to the machine catalog
type MachineRepository struct {
	db *gorm.DB
}

// NewMachineRepository creates a new machine repository instance
func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

// Create adds a machine to the catalog
func (r *MachineRepository) Create(ctx context.Context, machine *models.Machine) error {
	machine.MachineID = strings.TrimSpace(machine.MachineID)
	if err := machine.Validate(); err != nil {
		return err
	}

	_, err := r.GetByMachineID(ctx, machine.MachineID)
	if err == nil {
		return ErrMachineExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error checking machine existence: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(machine).Error; err != nil {
		if db.IsDuplicateKeyError(err) {
			return ErrMachineExists
		}
		return fmt.Errorf("failed to create machine: %w", err)
	}
	return nil
}

// GetByMachineID retrieves a machine by its catalog id
func (r *MachineRepository) GetByMachineID(ctx context.Context, machineID string) (*models.Machine, error) {
	var machine models.Machine
	err := r.db.WithContext(ctx).Where("machine_id = ?", strings.TrimSpace(machineID)).First(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("machine not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	return &machine, nil
}

// List returns the catalog ordered by machine id
func (r *MachineRepository) List(ctx context.Context) ([]models.Machine, error) {
	machines := []models.Machine{}
	err := r.db.WithContext(ctx).Order("machine_id ASC").Find(&machines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

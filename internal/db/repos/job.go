// Package repos holds the gorm backed repositories for jobs, users and machines
package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// JobRepository provides access to job-related database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update writes the full job record. Concurrent writers are not detected; the last write wins.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	if job.ID == 0 {
		return fmt.Errorf("cannot update a job without an id")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	// only live rows are written; a job deleted since it was read stays deleted
	result := r.db.WithContext(ctx).Model(job).
		Select("*").Omit("created_at", "deleted_at").
		Updates(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %d not found: %w", job.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, ID uint) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List returns one page of jobs ordered by id.
// A nil opts reads the first DefaultLimit non deleted jobs; use All for the complete set.
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	opts = normalizeListOptions(opts)

	jobs := []models.Job{}
	db := r.db.WithContext(ctx)
	if opts.IncludeDeleted {
		db = db.Unscoped()
	}
	if opts.Status != nil {
		db = db.Where(models.JobStatusField+" = ?", *opts.Status)
	}

	err := db.Model(&models.Job{}).
		Limit(opts.Limit).Offset(opts.Offset).
		Order("id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// All returns every non deleted job in id order, reading DefaultLimit rows at a time
func (r *JobRepository) All(ctx context.Context) ([]models.Job, error) {
	all := []models.Job{}
	batch := []models.Job{}
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Order("id ASC").
		FindInBatches(&batch, models.DefaultLimit, func(_ *gorm.DB, _ int) error {
			all = append(all, batch...)
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return all, nil
}

// Count returns the number of jobs
// if the status is unknown, it will return the number of jobs regardless of their status
func (r *JobRepository) Count(ctx context.Context, status models.JobStatus) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.Job{})
	if status != models.JobStatusUnknown {
		db = db.Where(models.JobStatusField+" = ?", status)
	}
	err := db.Count(&count).Error
	return count, err
}

// Delete soft deletes a job
func (r *JobRepository) Delete(ctx context.Context, ID uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Job{}, ID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func normalizeListOptions(opts *models.ListOptions) *models.ListOptions {
	if opts == nil {
		return &models.ListOptions{Limit: models.DefaultLimit}
	}
	out := *opts
	if out.Limit <= 0 || out.Limit > models.DefaultLimit {
		out.Limit = models.DefaultLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return &out
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/events"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// Job provides business logic for job operations
type Job struct {
	jobRepo     *repos.JobRepository
	machineRepo *repos.MachineRepository
	bus         *events.Bus
	opts        workflow.Options
}

// NewJobService creates a new job service instance. bus may be nil when nothing listens for changes.
func NewJobService(jobRepo *repos.JobRepository, machineRepo *repos.MachineRepository, bus *events.Bus, policy workflow.RejectPolicy) *Job {
	return &Job{
		jobRepo:     jobRepo,
		machineRepo: machineRepo,
		bus:         bus,
		opts:        workflow.Options{RejectPolicy: policy},
	}
}

// WithClock replaces the transition clock, for tests
func (s *Job) WithClock(now func() time.Time) *Job {
	s.opts.Now = now
	return s
}

// ListJobs returns the jobs visible to actor
func (s *Job) ListJobs(ctx context.Context, actor workflow.Actor) ([]models.Job, error) {
	jobs, err := s.jobRepo.All(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return workflow.ProjectForRole(jobs, actor.Role, actor.UserID), nil
}

// GetJob returns a single job. Jobs the actor may not see are reported as not found.
func (s *Job) GetJob(ctx context.Context, actor workflow.Actor, id uint) (*models.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if !workflow.CanView(*job, actor.Role, actor.UserID) {
		return nil, fmt.Errorf("job %d: %w", id, workflow.ErrNotFound)
	}
	return job, nil
}

// CreateJob creates a Pending job from an admin request
func (s *Job) CreateJob(ctx context.Context, actor workflow.Actor, req types.JobRequest) (*models.Job, error) {
	if err := requireAdmin(actor, "create jobs"); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	job := &models.Job{
		Status:           models.JobStatusPending,
		ContractorStatus: models.JobStatusPending.ContractorStatus(),
		StatusTimestamp:  &now,
		Machines:         []models.MachineUsage{},
	}
	req.ApplyTo(job)

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, storeError(err)
	}
	s.publish(events.EventJobCreated, actor, *job, "", "")
	return job, nil
}

// UpdateJob replaces the descriptive and assignment fields of a job. Status and onsite time are kept.
func (s *Job) UpdateJob(ctx context.Context, actor workflow.Actor, id uint, req types.JobRequest) (*models.Job, error) {
	if err := requireAdmin(actor, "edit jobs"); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	updated := *current
	req.ApplyTo(&updated)
	if err := s.jobRepo.Update(ctx, &updated); err != nil {
		return nil, storeError(err)
	}
	s.publish(events.EventJobUpdated, actor, updated, "", "")
	return &updated, nil
}

// DeleteJob removes a job
func (s *Job) DeleteJob(ctx context.Context, actor workflow.Actor, id uint) error {
	if err := requireAdmin(actor, "delete jobs"); err != nil {
		return err
	}
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	s.publish(events.EventJobDeleted, actor, *job, "", "")
	return nil
}

// Advance moves the job one step forward on behalf of its assigned worker
func (s *Job) Advance(ctx context.Context, actor workflow.Actor, id uint) (*models.Job, error) {
	return s.Transition(ctx, actor, id, workflow.ActionAdvance)
}

// Approve accepts completed work
func (s *Job) Approve(ctx context.Context, actor workflow.Actor, id uint) (*models.Job, error) {
	return s.Transition(ctx, actor, id, workflow.ActionApprove)
}

// Reject refuses completed work according to the configured reject policy
func (s *Job) Reject(ctx context.Context, actor workflow.Actor, id uint) (*models.Job, error) {
	return s.Transition(ctx, actor, id, workflow.ActionReject)
}

// Transition reads the job, decides the action and writes the result.
// The read and the write are not atomic; a concurrent writer can be overwritten.
func (s *Job) Transition(ctx context.Context, actor workflow.Actor, id uint, action workflow.Action) (*models.Job, error) {
	current, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	res, err := workflow.Transition(*current, actor, action, s.opts)
	if err != nil {
		return nil, err
	}

	updated := *current
	res.Apply(&updated)
	if err := s.jobRepo.Update(ctx, &updated); err != nil {
		return nil, storeError(err)
	}

	s.publish(events.EventJobTransitioned, actor, updated, string(action), current.Status.String())
	return &updated, nil
}

// SubmitCompletion validates a close-out form and moves the job to Completed - Pending Approval
func (s *Job) SubmitCompletion(ctx context.Context, actor workflow.Actor, id uint, form workflow.CompletionForm) (*models.Job, error) {
	current, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if err := workflow.CanComplete(*current, actor); err != nil {
		return nil, err
	}

	machines, err := s.machineRepo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	payload, err := workflow.BuildCompletionPayload(form, *current, machines)
	if err != nil {
		return nil, err
	}
	res, err := workflow.Complete(*current, actor, payload, s.opts)
	if err != nil {
		return nil, err
	}

	updated := *current
	payload.Apply(&updated)
	res.Apply(&updated)
	if err := s.jobRepo.Update(ctx, &updated); err != nil {
		return nil, storeError(err)
	}

	s.publish(events.EventJobUpdated, actor, updated, "complete", current.Status.String())
	return &updated, nil
}

func (s *Job) now() time.Time {
	if s.opts.Now != nil {
		return s.opts.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Job) publish(t events.EventType, actor workflow.Actor, job models.Job, action, from string) {
	s.bus.Publish(events.Event{
		Type:       t,
		JobID:      job.ID,
		WorkOrder:  job.WorkOrder,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role.String(),
		Action:     action,
		FromStatus: from,
		ToStatus:   job.Status.String(),
		At:         s.now(),
	})
}

func requireAdmin(actor workflow.Actor, what string) error {
	if actor.Role != models.UserRoleAdmin {
		return fmt.Errorf("%w: only an admin may %s", workflow.ErrForbidden, what)
	}
	return nil
}

// storeError maps repository failures onto the workflow error taxonomy
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(workflow.ErrNotFound, err)
	case errors.Is(err, workflow.ErrValidation):
		return err
	default:
		return errors.Join(workflow.ErrStoreUnavailable, err)
	}
}

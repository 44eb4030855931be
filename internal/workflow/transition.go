// Package workflow holds the job status lifecycle: the transition engine, the per-role view
// projection and the completion form handling. Everything here is pure and never touches storage.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// Action is a lifecycle action requested by an actor
type Action string

// Supported actions
const (
	// ActionAdvance is the single worker button. Pending goes on site, In Progress goes to completed.
	ActionAdvance Action = "advance"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction converts a wire value to an Action
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAdvance, ActionApprove, ActionReject:
		return a, nil
	}
	return "", fmt.Errorf("unknown action: %q", s)
}

// RejectPolicy decides where a rejected job goes
type RejectPolicy string

const (
	// RejectRework sends the job back to Pending so the worker can redo it
	RejectRework RejectPolicy = "rework"
	// RejectTerminal closes the job as Rejected
	RejectTerminal RejectPolicy = "terminal"
)

// ParseRejectPolicy converts a configuration value to a RejectPolicy. Empty means rework.
func ParseRejectPolicy(s string) (RejectPolicy, error) {
	switch p := RejectPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RejectRework, nil
	case RejectRework, RejectTerminal:
		return p, nil
	}
	return "", fmt.Errorf("unknown reject policy: %q", s)
}

// Actor is the authenticated user requesting an action
type Actor struct {
	UserID string
	Role   models.UserRole
}

// Options carries the clock and the configured reject policy
type Options struct {
	Now          func() time.Time
	RejectPolicy RejectPolicy
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Result is the outcome of an accepted transition
type Result struct {
	Status           models.JobStatus
	ContractorStatus string
	Timestamp        time.Time
	// OnsiteTime is non-nil only when the job had no onsite time and the transition sets it
	OnsiteTime *time.Time
}

// Apply writes the result into job. An existing onsite time is never overwritten.
func (r Result) Apply(job *models.Job) {
	ts := r.Timestamp
	job.Status = r.Status
	job.ContractorStatus = r.ContractorStatus
	job.StatusTimestamp = &ts
	if r.OnsiteTime != nil && job.OnsiteTime == nil {
		onsite := *r.OnsiteTime
		job.OnsiteTime = &onsite
	}
}

// Transition decides the outcome of action on job by actor. The job is not modified.
func Transition(job models.Job, actor Actor, action Action, opts Options) (Result, error) {
	switch action {
	case ActionAdvance:
		return advance(job, actor, opts)
	case ActionApprove, ActionReject:
		return decide(job, actor, action, opts)
	}
	return Result{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
}

func advance(job models.Job, actor Actor, opts Options) (Result, error) {
	// status first: a closed job is an invalid transition for everyone
	switch job.Status {
	case models.JobStatusPending, models.JobStatusInProgress:
	default:
		return Result{}, fmt.Errorf("%w: job already completed or approved (status %q)", ErrInvalidTransition, job.Status)
	}

	if !IsAssignee(job, actor) {
		return Result{}, fmt.Errorf("%w: only the assigned %s may advance job %d", ErrForbidden, assigneeRole(job), job.ID)
	}

	now := opts.now()
	if job.Status == models.JobStatusPending {
		res := Result{
			Status:           models.JobStatusInProgress,
			ContractorStatus: models.JobStatusInProgress.ContractorStatus(),
			Timestamp:        now,
		}
		if job.OnsiteTime == nil {
			res.OnsiteTime = &now
		}
		return res, nil
	}

	return Result{
		Status:           models.JobStatusCompletedPendingApproval,
		ContractorStatus: models.JobStatusCompletedPendingApproval.ContractorStatus(),
		Timestamp:        now,
	}, nil
}

func decide(job models.Job, actor Actor, action Action, opts Options) (Result, error) {
	if actor.Role != models.UserRoleAdmin {
		return Result{}, fmt.Errorf("%w: only an admin may %s a job", ErrForbidden, action)
	}
	if job.Status != models.JobStatusCompletedPendingApproval {
		return Result{}, fmt.Errorf("%w: cannot %s a job with status %q", ErrInvalidTransition, action, job.Status)
	}

	target := models.JobStatusApproved
	if action == ActionReject {
		target = models.JobStatusPending
		if opts.RejectPolicy == RejectTerminal {
			target = models.JobStatusRejected
		}
	}

	return Result{
		Status:           target,
		ContractorStatus: target.ContractorStatus(),
		Timestamp:        opts.now(),
	}, nil
}

// IsAssignee reports whether actor is the worker the job is assigned to.
// Contractors match assigned_contractor and technicians match assigned_tech, both compared after trimming.
func IsAssignee(job models.Job, actor Actor) bool {
	id := strings.TrimSpace(actor.UserID)
	if id == "" {
		return false
	}
	switch actor.Role {
	case models.UserRoleContractor:
		return strings.TrimSpace(job.AssignedContractor) == id
	case models.UserRoleTechnician:
		return strings.TrimSpace(job.AssignedTech) == id
	}
	return false
}

func assigneeRole(job models.Job) string {
	if job.Role.IsWorker() {
		return job.Role.String()
	}
	return "worker"
}

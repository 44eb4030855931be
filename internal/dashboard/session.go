package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// JobAPI is the part of the API client a dashboard uses
type JobAPI interface {
	GetJobs(ctx context.Context) ([]models.Job, error)
	AdvanceJob(ctx context.Context, id uint) (models.Job, error)
	ApproveJob(ctx context.Context, id uint) (models.Job, error)
	RejectJob(ctx context.Context, id uint) (models.Job, error)
	SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error)
}

// Session is one logged in user's dashboard: who they are, the jobs they last saw and the poller
// keeping that list fresh. The snapshot only changes after a successful round trip.
type Session struct {
	User models.User

	api    JobAPI
	cfg    PollConfig
	poller *Poller

	mu     sync.RWMutex
	jobs   []models.Job
	handle *Handle
}

// NewSession creates a session for user. Role and user id in cfg are taken from user.
func NewSession(api JobAPI, user models.User, cfg PollConfig) *Session {
	cfg.Role = user.Role
	cfg.UserID = user.UserID()
	return &Session{
		User:   user,
		api:    api,
		cfg:    cfg,
		poller: NewPoller(),
		jobs:   []models.Job{},
	}
}

// Role is the session user's role
func (s *Session) Role() models.UserRole {
	return s.User.Role
}

// Actor is the session user as a workflow actor
func (s *Session) Actor() workflow.Actor {
	return workflow.Actor{UserID: s.cfg.UserID, Role: s.cfg.Role}
}

// Refresh reloads the job list and returns the user's view of it
func (s *Session) Refresh(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.api.GetJobs(ctx)
	if err != nil {
		return nil, err
	}
	projected := workflow.ProjectForRole(jobs, s.cfg.Role, s.cfg.UserID)
	s.setJobs(projected)
	return slices.Clone(projected), nil
}

// Jobs returns the current snapshot
func (s *Session) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.jobs)
}

// Job returns the snapshot copy of job id
func (s *Session) Job(id uint) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return models.Job{}, false
}

// Advance moves job id one step forward
func (s *Session) Advance(ctx context.Context, id uint) (models.Job, error) {
	return s.apply(s.api.AdvanceJob(ctx, id))
}

// Approve approves job id
func (s *Session) Approve(ctx context.Context, id uint) (models.Job, error) {
	return s.apply(s.api.ApproveJob(ctx, id))
}

// Reject rejects job id
func (s *Session) Reject(ctx context.Context, id uint) (models.Job, error) {
	return s.apply(s.api.RejectJob(ctx, id))
}

// SubmitCompletion sends the close-out form for job id
func (s *Session) SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error) {
	return s.apply(s.api.SubmitCompletion(ctx, id, form))
}

// Watch starts polling and calls onChange with every new view. Watching again replaces the
// previous watch. Polling stops on Close, on the returned handle's Stop, or when ctx is done.
func (s *Session) Watch(ctx context.Context, onChange ChangeFunc) *Handle {
	// s.mu is not held across Start: stopping the previous loop waits for its callback,
	// which takes s.mu.
	h := s.poller.Start(s.cfg, s.api.GetJobs, func(jobs []models.Job) {
		s.setJobs(jobs)
		if onChange != nil {
			onChange(jobs)
		}
	})

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-h.Done():
		}
	}()
	return h
}

// Close stops polling
func (s *Session) Close() {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.mu.Unlock()
	s.poller.Stop(h)
}

// apply replaces the job in the snapshot after a successful action
func (s *Session) apply(job models.Job, err error) (models.Job, error) {
	if err != nil {
		return models.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := slices.Clone(s.jobs)
	idx := slices.IndexFunc(jobs, func(j models.Job) bool { return j.ID == job.ID })
	visible := workflow.CanView(job, s.cfg.Role, s.cfg.UserID)
	switch {
	case idx >= 0 && visible:
		jobs[idx] = job
	case idx >= 0:
		jobs = slices.Delete(jobs, idx, idx+1)
	case visible:
		jobs = append(jobs, job)
	}
	s.jobs = jobs
	return job, nil
}

func (s *Session) setJobs(jobs []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = slices.Clone(jobs)
}

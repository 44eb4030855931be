package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

type mockJobAPI struct {
	mock.Mock
}

func (m *mockJobAPI) GetJobs(ctx context.Context) ([]models.Job, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *mockJobAPI) AdvanceJob(ctx context.Context, id uint) (models.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Job), args.Error(1)
}

func (m *mockJobAPI) ApproveJob(ctx context.Context, id uint) (models.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Job), args.Error(1)
}

func (m *mockJobAPI) RejectJob(ctx context.Context, id uint) (models.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Job), args.Error(1)
}

func (m *mockJobAPI) SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error) {
	args := m.Called(ctx, id, form)
	return args.Get(0).(models.Job), args.Error(1)
}

func tech(id uint) models.User {
	return models.User{Model: gorm.Model{ID: id}, Username: "tech", Role: models.UserRoleTechnician}
}

func TestSession_RefreshProjects(t *testing.T) {
	api := &mockJobAPI{}
	api.On("GetJobs", mock.Anything).Return([]models.Job{
		job(1, "7", models.JobStatusPending),
		job(2, "8", models.JobStatusPending),
		job(3, " 7 ", models.JobStatusInProgress),
	}, nil)

	s := NewSession(api, tech(7), PollConfig{})
	assert.Equal(t, workflow.Actor{UserID: "7", Role: models.UserRoleTechnician}, s.Actor())
	assert.Equal(t, models.UserRoleTechnician, s.Role())
	assert.Empty(t, s.Jobs())

	jobs, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, []uint{1, 3}, []uint{jobs[0].ID, jobs[1].ID})
	assert.Equal(t, jobs, s.Jobs())

	_, ok := s.Job(2)
	assert.False(t, ok)
	api.AssertExpectations(t)
}

func TestSession_ActionsReplaceSnapshotOnlyOnSuccess(t *testing.T) {
	api := &mockJobAPI{}
	api.On("GetJobs", mock.Anything).Return([]models.Job{job(1, "7", models.JobStatusPending)}, nil)

	s := NewSession(api, tech(7), PollConfig{})
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	api.On("AdvanceJob", mock.Anything, uint(1)).Return(models.Job{}, workflow.ErrStoreUnavailable).Once()
	_, err = s.Advance(context.Background(), 1)
	assert.ErrorIs(t, err, workflow.ErrStoreUnavailable)
	cached, ok := s.Job(1)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusPending, cached.Status, "a failed write leaves the snapshot alone")

	advanced := job(1, "7", models.JobStatusInProgress)
	api.On("AdvanceJob", mock.Anything, uint(1)).Return(advanced, nil).Once()
	got, err := s.Advance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, got.Status)
	cached, _ = s.Job(1)
	assert.Equal(t, models.JobStatusInProgress, cached.Status)

	form := workflow.CompletionForm{CustomerName: "Acme", ContactName: "Jo", WorkPerformed: "fixed", CompletionDate: "2025-03-14"}
	done := job(1, "7", models.JobStatusCompletedPendingApproval)
	api.On("SubmitCompletion", mock.Anything, uint(1), form).Return(done, nil).Once()
	_, err = s.SubmitCompletion(context.Background(), 1, form)
	require.NoError(t, err)
	cached, _ = s.Job(1)
	assert.Equal(t, models.JobStatusCompletedPendingApproval, cached.Status)

	api.On("ApproveJob", mock.Anything, uint(1)).Return(models.Job{}, workflow.ErrForbidden).Once()
	_, err = s.Approve(context.Background(), 1)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	api.AssertExpectations(t)
}

func TestSession_ApplyDropsJobsNoLongerVisible(t *testing.T) {
	admin := models.User{Model: gorm.Model{ID: 1}, Username: "admin", Role: models.UserRoleAdmin}
	api := &mockJobAPI{}
	api.On("GetJobs", mock.Anything).Return([]models.Job{job(1, "7", models.JobStatusCompletedPendingApproval)}, nil)
	api.On("RejectJob", mock.Anything, uint(1)).Return(job(1, "7", models.JobStatusPending), nil)

	s := NewSession(api, admin, PollConfig{})
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	_, err = s.Reject(context.Background(), 1)
	require.NoError(t, err)
	cached, ok := s.Job(1)
	require.True(t, ok, "admins see every job")
	assert.Equal(t, models.JobStatusPending, cached.Status)

	worker := &mockJobAPI{}
	worker.On("AdvanceJob", mock.Anything, uint(5)).Return(job(5, "9", models.JobStatusInProgress), nil)
	ws := NewSession(worker, tech(7), PollConfig{})
	_, err = ws.Advance(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, ws.Jobs(), "a job assigned elsewhere never enters the snapshot")
}

func TestSession_WatchAndClose(t *testing.T) {
	api := &mockJobAPI{}
	api.On("GetJobs", mock.Anything).Return([]models.Job{job(1, "7", models.JobStatusPending)}, nil)

	s := NewSession(api, tech(7), PollConfig{Interval: testInterval})
	changes := make(chan []models.Job, 4)
	h := s.Watch(context.Background(), func(jobs []models.Job) { changes <- jobs })

	select {
	case jobs := <-changes:
		require.Len(t, jobs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for first view")
	}
	assert.Len(t, s.Jobs(), 1, "the snapshot follows the poller")

	s.Close()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Close did not stop the poller")
	}
	s.Close()
}

func TestSession_WatchStopsWithContext(t *testing.T) {
	api := &mockJobAPI{}
	api.On("GetJobs", mock.Anything).Return([]models.Job{}, nil)

	s := NewSession(api, tech(7), PollConfig{Interval: testInterval})
	ctx, cancel := context.WithCancel(context.Background())
	h := s.Watch(ctx, nil)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled context did not stop the poller")
	}
}

// Package mock provides a hand-written client.Client for command tests
package mock

import (
	"context"
	"sync"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
	"github.com/prefect-field/jobtrack/pkg/api/v1/client"
)

var _ client.Client = &MockClient{}

// Call is one recorded method call
type Call struct {
	Method string
	Args   []interface{}
}

// MockClient implements the Client interface for testing.
// A nil function field makes the method return zero values.
type MockClient struct {
	// Function fields that can be set to mock behavior
	HealthCheckFn      func(ctx context.Context) (types.HealthResponse, error)
	LoginFn            func(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error)
	GetJobsFn          func(ctx context.Context) ([]models.Job, error)
	GetJobFn           func(ctx context.Context, id uint) (models.Job, error)
	CreateJobFn        func(ctx context.Context, req types.JobRequest) (models.Job, error)
	UpdateJobFn        func(ctx context.Context, id uint, req types.JobRequest) (models.Job, error)
	DeleteJobFn        func(ctx context.Context, id uint) error
	AdvanceJobFn       func(ctx context.Context, id uint) (models.Job, error)
	ApproveJobFn       func(ctx context.Context, id uint) (models.Job, error)
	RejectJobFn        func(ctx context.Context, id uint) (models.Job, error)
	SubmitCompletionFn func(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error)
	GetUsersFn         func(ctx context.Context, username string, page int) ([]models.User, error)
	GetUserByIDFn      func(ctx context.Context, id uint) (models.User, error)
	CreateUserFn       func(ctx context.Context, req types.CreateUserRequest) (types.CreateUserResponse, error)
	DeleteUserFn       func(ctx context.Context, id uint) error
	GetMachinesFn      func(ctx context.Context) ([]models.Machine, error)
	CreateMachineFn    func(ctx context.Context, req types.CreateMachineRequest) (models.Machine, error)

	mu    sync.Mutex
	calls []Call
}

func (m *MockClient) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Calls returns the recorded calls to method, or every call when method is empty
func (m *MockClient) Calls(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// HealthCheck implements client.Client
func (m *MockClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	m.record("HealthCheck")
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return types.HealthResponse{}, nil
}

// Login implements client.Client
func (m *MockClient) Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error) {
	m.record("Login", req)
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return types.LoginResponse{}, nil
}

// GetJobs implements client.Client
func (m *MockClient) GetJobs(ctx context.Context) ([]models.Job, error) {
	m.record("GetJobs")
	if m.GetJobsFn != nil {
		return m.GetJobsFn(ctx)
	}
	return []models.Job{}, nil
}

// GetJob implements client.Client
func (m *MockClient) GetJob(ctx context.Context, id uint) (models.Job, error) {
	m.record("GetJob", id)
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, id)
	}
	return models.Job{}, nil
}

// CreateJob implements client.Client
func (m *MockClient) CreateJob(ctx context.Context, req types.JobRequest) (models.Job, error) {
	m.record("CreateJob", req)
	if m.CreateJobFn != nil {
		return m.CreateJobFn(ctx, req)
	}
	return models.Job{}, nil
}

// UpdateJob implements client.Client
func (m *MockClient) UpdateJob(ctx context.Context, id uint, req types.JobRequest) (models.Job, error) {
	m.record("UpdateJob", id, req)
	if m.UpdateJobFn != nil {
		return m.UpdateJobFn(ctx, id, req)
	}
	return models.Job{}, nil
}

// DeleteJob implements client.Client
func (m *MockClient) DeleteJob(ctx context.Context, id uint) error {
	m.record("DeleteJob", id)
	if m.DeleteJobFn != nil {
		return m.DeleteJobFn(ctx, id)
	}
	return nil
}

// AdvanceJob implements client.Client
func (m *MockClient) AdvanceJob(ctx context.Context, id uint) (models.Job, error) {
	m.record("AdvanceJob", id)
	if m.AdvanceJobFn != nil {
		return m.AdvanceJobFn(ctx, id)
	}
	return models.Job{}, nil
}

// ApproveJob implements client.Client
func (m *MockClient) ApproveJob(ctx context.Context, id uint) (models.Job, error) {
	m.record("ApproveJob", id)
	if m.ApproveJobFn != nil {
		return m.ApproveJobFn(ctx, id)
	}
	return models.Job{}, nil
}

// RejectJob implements client.Client
func (m *MockClient) RejectJob(ctx context.Context, id uint) (models.Job, error) {
	m.record("RejectJob", id)
	if m.RejectJobFn != nil {
		return m.RejectJobFn(ctx, id)
	}
	return models.Job{}, nil
}

// SubmitCompletion implements client.Client
func (m *MockClient) SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error) {
	m.record("SubmitCompletion", id, form)
	if m.SubmitCompletionFn != nil {
		return m.SubmitCompletionFn(ctx, id, form)
	}
	return models.Job{}, nil
}

// GetUsers implements client.Client
func (m *MockClient) GetUsers(ctx context.Context, username string, page int) ([]models.User, error) {
	m.record("GetUsers", username, page)
	if m.GetUsersFn != nil {
		return m.GetUsersFn(ctx, username, page)
	}
	return []models.User{}, nil
}

// GetUserByID implements client.Client
func (m *MockClient) GetUserByID(ctx context.Context, id uint) (models.User, error) {
	m.record("GetUserByID", id)
	if m.GetUserByIDFn != nil {
		return m.GetUserByIDFn(ctx, id)
	}
	return models.User{}, nil
}

// CreateUser implements client.Client
func (m *MockClient) CreateUser(ctx context.Context, req types.CreateUserRequest) (types.CreateUserResponse, error) {
	m.record("CreateUser", req)
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, req)
	}
	return types.CreateUserResponse{}, nil
}

// DeleteUser implements client.Client
func (m *MockClient) DeleteUser(ctx context.Context, id uint) error {
	m.record("DeleteUser", id)
	if m.DeleteUserFn != nil {
		return m.DeleteUserFn(ctx, id)
	}
	return nil
}

// GetMachines implements client.Client
func (m *MockClient) GetMachines(ctx context.Context) ([]models.Machine, error) {
	m.record("GetMachines")
	if m.GetMachinesFn != nil {
		return m.GetMachinesFn(ctx)
	}
	return []models.Machine{}, nil
}

// CreateMachine implements client.Client
func (m *MockClient) CreateMachine(ctx context.Context, req types.CreateMachineRequest) (models.Machine, error) {
	m.record("CreateMachine", req)
	if m.CreateMachineFn != nil {
		return m.CreateMachineFn(ctx, req)
	}
	return models.Machine{}, nil
}

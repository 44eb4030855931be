// Package client provides the API client for interacting with the jobtrack API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
	"github.com/prefect-field/jobtrack/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 10 * time.Second

// ErrUnauthorized is returned when the server refuses the session token or the credentials
var ErrUnauthorized = errors.New("unauthorized")

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// Auth Endpoints
	Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error)

	// Job Endpoints
	GetJobs(ctx context.Context) ([]models.Job, error)
	GetJob(ctx context.Context, id uint) (models.Job, error)
	CreateJob(ctx context.Context, req types.JobRequest) (models.Job, error)
	UpdateJob(ctx context.Context, id uint, req types.JobRequest) (models.Job, error)
	DeleteJob(ctx context.Context, id uint) error
	AdvanceJob(ctx context.Context, id uint) (models.Job, error)
	ApproveJob(ctx context.Context, id uint) (models.Job, error)
	RejectJob(ctx context.Context, id uint) (models.Job, error)
	SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error)

	// User Endpoints
	GetUsers(ctx context.Context, username string, page int) ([]models.User, error)
	GetUserByID(ctx context.Context, id uint) (models.User, error)
	CreateUser(ctx context.Context, req types.CreateUserRequest) (types.CreateUserResponse, error)
	DeleteUser(ctx context.Context, id uint) error

	// Machine Endpoints
	GetMachines(ctx context.Context) ([]models.Machine, error)
	CreateMachine(ctx context.Context, req types.CreateMachineRequest) (models.Machine, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// Token is the session token sent as a bearer credential
	Token string
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL   string
	timeout   time.Duration
	AuthToken string
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (*APIClient, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL:   opts.BaseURL,
		timeout:   timeout,
		AuthToken: opts.Token,
	}, nil
}

// APIError is a non-2xx answer from the server. It unwraps to the matching workflow error.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
	err        error
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 && string(e.Details) != "null" {
		return fmt.Sprintf("api error (status %d): %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap returns the workflow error the status code stands for
func (e *APIError) Unwrap() error {
	return e.err
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodPut:
		agent = fiber.Put(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Accept", "application/json")
	if c.AuthToken != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.AuthToken)
	}

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and decodes the data envelope into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(workflow.ErrStoreUnavailable, fmt.Errorf("error sending request: %w", errs[0]))
	}

	if statusCode < 200 || statusCode >= 300 {
		return decodeError(statusCode, body)
	}

	if v == nil || len(body) == 0 {
		return nil
	}

	envelope := types.SuccessResponse[json.RawMessage]{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

// decodeError turns an error response into an *APIError
func decodeError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: string(body)}

	var resp struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		apiErr.Message = resp.Error
		apiErr.Details = resp.Details
	}

	switch statusCode {
	case http.StatusBadRequest:
		var field types.FieldError
		if err := json.Unmarshal(apiErr.Details, &field); err == nil && field.Field != "" {
			apiErr.err = workflow.NewValidationError(field.Field, field.Reason)
		} else {
			apiErr.err = workflow.NewValidationError("request", apiErr.Message)
		}
	case http.StatusUnauthorized:
		apiErr.err = ErrUnauthorized
	case http.StatusForbidden:
		apiErr.err = workflow.ErrForbidden
	case http.StatusNotFound:
		apiErr.err = workflow.ErrNotFound
	case http.StatusConflict:
		apiErr.err = workflow.ErrInvalidTransition
	default:
		apiErr.err = workflow.ErrStoreUnavailable
	}
	return apiErr
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// HealthCheck checks the health of the API. The health endpoint is not wrapped in the data envelope.
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL(), nil)
	if err != nil {
		return types.HealthResponse{}, err
	}
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return types.HealthResponse{}, errors.Join(workflow.ErrStoreUnavailable, fmt.Errorf("error sending request: %w", errs[0]))
	}
	if statusCode != http.StatusOK {
		return types.HealthResponse{}, decodeError(statusCode, body)
	}

	var response types.HealthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return types.HealthResponse{}, fmt.Errorf("error decoding response: %w", err)
	}
	return response, nil
}

// Login exchanges credentials for a session token. The token is kept for later requests.
func (c *APIClient) Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error) {
	var response types.LoginResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.LoginURL(), req, &response); err != nil {
		return types.LoginResponse{}, err
	}
	c.AuthToken = response.Token
	return response, nil
}

// Job methods implementation

// GetJobs lists the jobs visible to the logged in user
func (c *APIClient) GetJobs(ctx context.Context) ([]models.Job, error) {
	var response []models.Job
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetJobsURL(), nil, &response); err != nil {
		return []models.Job{}, err
	}
	if response == nil {
		response = []models.Job{}
	}
	return response, nil
}

// GetJob retrieves a job by ID
func (c *APIClient) GetJob(ctx context.Context, id uint) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodGet, routes.GetJobURL(id), nil)
}

// CreateJob creates a new job
func (c *APIClient) CreateJob(ctx context.Context, req types.JobRequest) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPost, routes.CreateJobURL(), req)
}

// UpdateJob replaces the descriptive fields of a job
func (c *APIClient) UpdateJob(ctx context.Context, id uint, req types.JobRequest) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPut, routes.UpdateJobURL(id), req)
}

// DeleteJob deletes a job by ID
func (c *APIClient) DeleteJob(ctx context.Context, id uint) error {
	return c.executeRequest(ctx, http.MethodDelete, routes.DeleteJobURL(id), nil, nil)
}

// AdvanceJob moves a job one step forward
func (c *APIClient) AdvanceJob(ctx context.Context, id uint) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPost, routes.AdvanceJobURL(id), nil)
}

// ApproveJob approves a completed job
func (c *APIClient) ApproveJob(ctx context.Context, id uint) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPost, routes.ApproveJobURL(id), nil)
}

// RejectJob rejects a completed job
func (c *APIClient) RejectJob(ctx context.Context, id uint) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPost, routes.RejectJobURL(id), nil)
}

// SubmitCompletion submits the close-out form of a job
func (c *APIClient) SubmitCompletion(ctx context.Context, id uint, form workflow.CompletionForm) (models.Job, error) {
	return c.jobRequest(ctx, http.MethodPost, routes.SubmitCompletionURL(id), form)
}

func (c *APIClient) jobRequest(ctx context.Context, method, endpoint string, body interface{}) (models.Job, error) {
	var response models.Job
	if err := c.executeRequest(ctx, method, endpoint, body, &response); err != nil {
		return models.Job{}, err
	}
	return response, nil
}

// User method implementation

// GetUsers lists users, or the single user with username when it is set
func (c *APIClient) GetUsers(ctx context.Context, username string, page int) ([]models.User, error) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	var response []models.User
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetUsersURL(q), nil, &response); err != nil {
		return []models.User{}, err
	}
	return response, nil
}

// GetUserByID retrieves a user by id
func (c *APIClient) GetUserByID(ctx context.Context, id uint) (models.User, error) {
	var response models.User
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetUserByIDURL(id), nil, &response); err != nil {
		return models.User{}, err
	}
	return response, nil
}

// CreateUser creates a new user
func (c *APIClient) CreateUser(ctx context.Context, req types.CreateUserRequest) (types.CreateUserResponse, error) {
	var response types.CreateUserResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.CreateUserURL(), req, &response); err != nil {
		return types.CreateUserResponse{}, err
	}
	return response, nil
}

// DeleteUser deletes a user by id
func (c *APIClient) DeleteUser(ctx context.Context, id uint) error {
	return c.executeRequest(ctx, http.MethodDelete, routes.DeleteUserURL(id), nil, nil)
}

// Machine method implementation

// GetMachines lists the machine catalog
func (c *APIClient) GetMachines(ctx context.Context) ([]models.Machine, error) {
	var response []models.Machine
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetMachinesURL(), nil, &response); err != nil {
		return []models.Machine{}, err
	}
	return response, nil
}

// CreateMachine adds a machine to the catalog
func (c *APIClient) CreateMachine(ctx context.Context, req types.CreateMachineRequest) (models.Machine, error) {
	var response models.Machine
	if err := c.executeRequest(ctx, http.MethodPost, routes.CreateMachineURL(), req, &response); err != nil {
		return models.Machine{}, err
	}
	return response, nil
}

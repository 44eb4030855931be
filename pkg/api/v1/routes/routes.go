// Package routes defines the API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/pkg/api/v1/handlers"
	"github.com/prefect-field/jobtrack/pkg/api/v1/middleware"
)

/*

To keep this file organized, routes should be organized in the following way:

1. Smallest scope first (i.e. auth routes before job routes)
2. For similar scopes, put the endpoints in alphabetical order
3. Order routes in GET, POST, PUT, DELETE order.
	a. Within this ordering, param urls (ie /:id) should go last, otherwise fiber will interpret the route slug as that param.
	b. After param considerations, order alphabetically.
4. For clarity, naming should match the action (i.e. GetJob, DeleteJob)

*/

// API base configuration
const (
	// DefaultPort is the default port for the API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Auth routes
	Login = "Login"

	// Machine routes
	GetMachines   = "GetMachines"
	CreateMachine = "CreateMachine"

	// Job routes
	GetJobs          = "GetJobs"
	GetJob           = "GetJob"
	CreateJob        = "CreateJob"
	AdvanceJob       = "AdvanceJob"
	ApproveJob       = "ApproveJob"
	RejectJob        = "RejectJob"
	SubmitCompletion = "SubmitCompletion"
	UpdateJob        = "UpdateJob"
	DeleteJob        = "DeleteJob"

	// User routes
	GetUsers    = "GetUsers"
	GetUserByID = "GetUserByID"
	CreateUser  = "CreateUser"
	DeleteUser  = "DeleteUser"
)

// Handlers groups the handlers served under /api/v1
type Handlers struct {
	Auth    *handlers.AuthHandler
	Job     *handlers.JobHandler
	Machine *handlers.MachineHandler
	User    *handlers.UserHandler
}

// routeCache stores extracted routes for use prior to compilation
var (
	routeCache     map[string]string
	routeCacheMu   sync.RWMutex
	routeCacheInit sync.Once
)

// RegisterRoutes configures all the v1 routes. Everything except health and login
// goes through the bearer token check.
//
// NOTE: route ordering is important because routes will try and match in the order they are registered.
func RegisterRoutes(app *fiber.App, h Handlers, verifier middleware.TokenVerifier) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(types.HealthResponse{Status: "healthy"})
	}).Name(HealthCheck)

	// API v1 routes
	v1 := app.Group(APIv1Prefix)

	// ---------------------------
	// Auth endpoints
	v1.Post("/auth/login", h.Auth.Login).Name(Login)

	requireAuth := middleware.Auth(verifier)
	adminOnly := middleware.RequireRole(models.UserRoleAdmin)

	// ---------------------------
	// Machine endpoints
	machines := v1.Group("/machines", requireAuth)
	machines.Get("/", h.Machine.ListMachines).Name(GetMachines)
	machines.Post("/", adminOnly, h.Machine.CreateMachine).Name(CreateMachine)

	// ---------------------------
	// Job endpoints
	// Role checks for jobs live in the job service so every caller gets the same rules.
	jobs := v1.Group("/jobs", requireAuth)
	jobs.Get("/", h.Job.ListJobs).Name(GetJobs)
	jobs.Get("/:id", h.Job.GetJob).Name(GetJob)
	jobs.Post("/", h.Job.CreateJob).Name(CreateJob)
	jobs.Post("/:id/advance", h.Job.AdvanceJob).Name(AdvanceJob)
	jobs.Post("/:id/approve", h.Job.ApproveJob).Name(ApproveJob)
	jobs.Post("/:id/completion", h.Job.SubmitCompletion).Name(SubmitCompletion)
	jobs.Post("/:id/reject", h.Job.RejectJob).Name(RejectJob)
	jobs.Put("/:id", h.Job.UpdateJob).Name(UpdateJob)
	jobs.Delete("/:id", h.Job.DeleteJob).Name(DeleteJob)

	// ---------------------------
	// User endpoints
	users := v1.Group("/users", requireAuth, adminOnly)
	users.Get("/", h.User.GetUsers).Name(GetUsers)
	users.Get("/:id", h.User.GetUserByID).Name(GetUserByID)
	users.Post("/", h.User.CreateUser).Name(CreateUser)
	users.Delete("/:id", h.User.DeleteUser).Name(DeleteUser)
}

// initRouteCache initializes the route cache by creating a mock app and extracting routes
func initRouteCache() {
	routeCacheInit.Do(func() {
		routeCache = make(map[string]string)

		app := fiber.New()

		// Empty handlers are enough, nothing is served
		RegisterRoutes(app, Handlers{
			Auth:    &handlers.AuthHandler{},
			Job:     &handlers.JobHandler{},
			Machine: &handlers.MachineHandler{},
			User:    &handlers.UserHandler{},
		}, nil)

		for _, route := range app.GetRoutes() {
			if route.Name != "" {
				routeCache[route.Name] = route.Path
			}
		}
	})
}

// GetRoute returns the route pattern for the given route name
func GetRoute(name string) string {
	routeCacheMu.RLock()
	defer routeCacheMu.RUnlock()

	// Initialize cache if needed
	if routeCache == nil {
		routeCacheMu.RUnlock()
		initRouteCache()
		routeCacheMu.RLock()
	}

	return routeCache[name]
}

// BuildURL builds a URL for the given route name and parameters
func BuildURL(routeName string, params map[string]string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Replace parameters in the route
	for param, value := range params {
		route = strings.ReplaceAll(route, ":"+param, url.PathEscape(value))
	}

	// Remove trailing slash if it's a base endpoint with no parameters
	if strings.HasSuffix(route, "/") && !strings.Contains(route, ":") {
		route = strings.TrimSuffix(route, "/")
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

func idParams(id uint) map[string]string {
	return map[string]string{"id": fmt.Sprintf("%d", id)}
}

// HealthCheckURL returns the URL for the health check endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil, nil)
}

// LoginURL returns the URL for the login endpoint
func LoginURL() string {
	return BuildURL(Login, nil, nil)
}

// Machine route helpers

// GetMachinesURL returns the URL for listing the machine catalog
func GetMachinesURL() string {
	return BuildURL(GetMachines, nil, nil)
}

// CreateMachineURL returns the URL for adding a machine
func CreateMachineURL() string {
	return BuildURL(CreateMachine, nil, nil)
}

// Job route helpers

// GetJobsURL returns the URL for listing jobs
func GetJobsURL() string {
	return BuildURL(GetJobs, nil, nil)
}

// GetJobURL returns the URL for getting a job by ID
func GetJobURL(id uint) string {
	return BuildURL(GetJob, idParams(id), nil)
}

// CreateJobURL returns the URL for creating a job
func CreateJobURL() string {
	return BuildURL(CreateJob, nil, nil)
}

// AdvanceJobURL returns the URL for advancing a job
func AdvanceJobURL(id uint) string {
	return BuildURL(AdvanceJob, idParams(id), nil)
}

// ApproveJobURL returns the URL for approving a job
func ApproveJobURL(id uint) string {
	return BuildURL(ApproveJob, idParams(id), nil)
}

// RejectJobURL returns the URL for rejecting a job
func RejectJobURL(id uint) string {
	return BuildURL(RejectJob, idParams(id), nil)
}

// SubmitCompletionURL returns the URL for submitting a job's completion form
func SubmitCompletionURL(id uint) string {
	return BuildURL(SubmitCompletion, idParams(id), nil)
}

// UpdateJobURL returns the URL for updating a job
func UpdateJobURL(id uint) string {
	return BuildURL(UpdateJob, idParams(id), nil)
}

// DeleteJobURL returns the URL for deleting a job
func DeleteJobURL(id uint) string {
	return BuildURL(DeleteJob, idParams(id), nil)
}

// User route helpers

// GetUsersURL returns the URL for getting users
func GetUsersURL(queryParams url.Values) string {
	return BuildURL(GetUsers, nil, queryParams)
}

// GetUserByIDURL returns the URL for getting a user by ID
func GetUserByIDURL(id uint) string {
	return BuildURL(GetUserByID, idParams(id), nil)
}

// CreateUserURL returns the URL for creating a user
func CreateUserURL() string {
	return BuildURL(CreateUser, nil, nil)
}

// DeleteUserURL returns the URL for deleting a user
func DeleteUserURL(id uint) string {
	return BuildURL(DeleteUser, idParams(id), nil)
}

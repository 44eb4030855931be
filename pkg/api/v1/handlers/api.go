package handlers

import "github.com/prefect-field/jobtrack/internal/services"

// APIHandler is a handler for the API
type APIHandler struct {
	job     *services.Job
	user    *services.User
	machine *services.Machine
	auth    *services.Auth
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(job *services.Job, user *services.User, machine *services.Machine, auth *services.Auth) *APIHandler {
	return &APIHandler{
		job:     job,
		user:    user,
		machine: machine,
		auth:    auth,
	}
}

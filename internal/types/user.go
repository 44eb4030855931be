package types

import (
	"strings"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

// Validate checks the presence rules for a user request
func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return workflow.NewValidationError("username", "is required")
	}
	if r.Password == "" {
		return workflow.NewValidationError("password", "is required")
	}
	if r.Role == models.UserRoleUnknown {
		return workflow.NewValidationError("role", "must be admin, contractor or technician")
	}
	return nil
}

// CreateUserResponse represents the response from the create user endpoint
type CreateUserResponse struct {
	UserID uint `json:"id"`
}

// LoginRequest carries the credentials for a session token
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

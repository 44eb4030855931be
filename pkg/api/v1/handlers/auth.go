package handlers

import (
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// AuthHandler handles login requests
type AuthHandler struct {
	*APIHandler
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(api *APIHandler) *AuthHandler {
	return &AuthHandler{
		APIHandler: api,
	}
}

// Login godoc
// @Summary Log in
// @Description Checks the credentials and returns a signed session token for the Authorization header
// @Tags auth
// @Accept json
// @Produce json
// @Param request body types.LoginRequest true "Credentials"
// @Success 200 {object} types.SuccessResponse[types.LoginResponse]
// @Failure 400 {object} types.ErrorResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if strings.TrimSpace(req.Username) == "" {
		return respondWithValidationError(c, workflow.NewValidationError("username", "is required"))
	}
	if req.Password == "" {
		return respondWithValidationError(c, workflow.NewValidationError("password", "is required"))
	}

	user, err := h.user.Authenticate(c.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return respondWithError(c, err, ErrMsgLoginFailed)
	}

	token, expires, err := h.auth.Issue(user)
	if err != nil {
		return respondWithError(c, err, ErrMsgLoginFailed)
	}
	return respond(c, fiber.StatusOK, types.LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      *user,
	})
}

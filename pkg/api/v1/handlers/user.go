package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	*APIHandler
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(api *APIHandler) *UserHandler {
	return &UserHandler{
		APIHandler: api,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Description Admin only. The password is stored as a bcrypt hash.
// @Tags users
// @Accept json
// @Produce json
// @Param request body types.CreateUserRequest true "New user"
// @Success 201 {object} types.SuccessResponse[types.CreateUserResponse] "Created user ID"
// @Failure 400 {object} types.ErrorResponse "Invalid parameters or username taken"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req types.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	user, err := h.user.CreateUser(c.Context(), req)
	if err != nil {
		return respondWithError(c, err, ErrMsgCreateUserFailed)
	}
	return respond(c, fiber.StatusCreated, types.CreateUserResponse{UserID: user.ID})
}

// GetUserByID godoc
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} types.SuccessResponse[models.User] "User details"
// @Failure 404 {object} types.ErrorResponse "User not found"
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUserByID(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidUserID)
	}

	user, err := h.user.GetUserByID(c.Context(), id)
	if err != nil {
		return respondWithError(c, err, ErrMsgGetUserFailed)
	}
	return respond(c, fiber.StatusOK, user)
}

// GetUsers godoc
// @Summary Get users
// @Description Retrieves a page of users, or the single user named by the username query parameter
// @Tags users
// @Produce json
// @Param username query string false "Username"
// @Param page query int false "Page, from 1"
// @Success 200 {object} types.SuccessResponse[[]models.User]
// @Router /api/v1/users [get]
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	if username := c.Query("username"); username != "" {
		user, err := h.user.GetUserByUsername(c.Context(), username)
		if err != nil {
			return respondWithError(c, err, ErrMsgGetUserFailed)
		}
		return respond(c, fiber.StatusOK, []models.User{*user})
	}

	opts, err := getPaginationOptions(c)
	if err != nil {
		return respondWithError(c, err, ErrMsgGetUsersFailed)
	}

	users, err := h.user.GetAllUsers(c.Context(), opts)
	if err != nil {
		return respondWithError(c, err, ErrMsgGetUsersFailed)
	}
	return respond(c, fiber.StatusOK, users)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} types.ErrorResponse "User not found"
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidUserID)
	}

	if err := h.user.DeleteUser(c.Context(), id); err != nil {
		return respondWithError(c, err, ErrMsgDeleteUserFailed)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	log "github.com/prefect-field/jobtrack/internal/logger"
	"github.com/prefect-field/jobtrack/internal/services"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// respond writes data inside the success envelope
func respond[T any](c *fiber.Ctx, status int, data T) error {
	return c.Status(status).JSON(types.SuccessResponse[T]{Data: data})
}

// respondWithError maps err onto a status code. Store and unexpected failures are logged
// and answered with msg only, the cause never reaches the caller.
func respondWithError(c *fiber.Ctx, err error, msg string) error {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return respondWithValidationError(c, verr)
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{Error: ErrMsgInvalidCredentials})
	case errors.Is(err, workflow.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{Error: ErrMsgForbidden, Details: err.Error()})
	case errors.Is(err, workflow.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorResponse{Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(types.ErrorResponse{Error: ErrMsgInvalidTransition, Details: err.Error()})
	}

	log.ErrorWithFields(msg, map[string]interface{}{
		"error":   err.Error(),
		"method":  c.Method(),
		"path":    c.Path(),
		"handler": c.Route().Name,
	})
	return c.Status(fiber.StatusInternalServerError).JSON(types.ErrorResponse{Error: msg})
}

func respondWithValidationError(c *fiber.Ctx, verr *workflow.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
		Error:   ErrMsgValidationFailed,
		Details: types.FieldError{Field: verr.Field, Reason: verr.Reason},
	})
}

func respondBadBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ErrorResponse{
		Error:   ErrMsgInvalidReqBody,
		Details: err.Error(),
	})
}

func respondUnauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{Error: ErrMsgUnauthorized})
}

// idParam reads the positive :id path parameter
func idParam(c *fiber.Ctx, field string) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, workflow.NewValidationError(field, "must be a positive integer")
	}
	return uint(id), nil
}

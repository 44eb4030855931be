package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// getPaginationOptions returns a ListOptions struct for the page query parameter.
// Pages start at 1; a missing page means the first one.
func getPaginationOptions(c *fiber.Ctx) (*models.ListOptions, error) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return nil, workflow.NewValidationError("page", ErrMsgNegativePagination)
	}

	return &models.ListOptions{
		Limit:          models.DefaultLimit,
		Offset:         (page - 1) * models.DefaultLimit,
		IncludeDeleted: c.QueryBool("include_deleted", false),
	}, nil
}

package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
	"github.com/prefect-field/jobtrack/pkg/api/v1/middleware"
)

// JobHandler handles HTTP requests for job operations
type JobHandler struct {
	*APIHandler
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(api *APIHandler) *JobHandler {
	return &JobHandler{
		APIHandler: api,
	}
}

// ListJobs godoc
// @Summary List jobs
// @Description Returns the jobs visible to the caller: every job for admins, the assigned jobs for workers
// @Tags jobs
// @Produce json
// @Success 200 {object} types.SuccessResponse[[]models.Job]
// @Failure 401 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Router /api/v1/jobs [get]
func (h *JobHandler) ListJobs(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}

	jobs, err := h.job.ListJobs(c.Context(), actor)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobListFailed)
	}
	return respond(c, fiber.StatusOK, jobs)
}

// GetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} types.SuccessResponse[models.Job]
// @Failure 404 {object} types.ErrorResponse "Unknown job, or a job assigned to someone else"
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidJobID)
	}

	job, err := h.job.GetJob(c.Context(), actor, id)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobGetFailed)
	}
	return respond(c, fiber.StatusOK, job)
}

// CreateJob godoc
// @Summary Create a job
// @Description Admin only. The job starts Pending.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body types.JobRequest true "Job fields"
// @Success 201 {object} types.SuccessResponse[models.Job]
// @Failure 400 {object} types.ErrorResponse
// @Failure 403 {object} types.ErrorResponse
// @Router /api/v1/jobs [post]
func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}

	var req types.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	job, err := h.job.CreateJob(c.Context(), actor, req)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobCreateFailed)
	}
	return respond(c, fiber.StatusCreated, job)
}

// UpdateJob godoc
// @Summary Update a job's descriptive and assignment fields
// @Description Admin only. Status and onsite time are left as they are.
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body types.JobRequest true "Job fields"
// @Success 200 {object} types.SuccessResponse[models.Job]
// @Router /api/v1/jobs/{id} [put]
func (h *JobHandler) UpdateJob(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidJobID)
	}

	var req types.JobRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	job, err := h.job.UpdateJob(c.Context(), actor, id, req)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobUpdateFailed)
	}
	return respond(c, fiber.StatusOK, job)
}

// DeleteJob godoc
// @Summary Delete a job
// @Tags jobs
// @Param id path int true "Job ID"
// @Success 204
// @Router /api/v1/jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidJobID)
	}

	if err := h.job.DeleteJob(c.Context(), actor, id); err != nil {
		return respondWithError(c, err, ErrMsgJobDeleteFailed)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdvanceJob moves an assigned job one step forward for the worker calling it
func (h *JobHandler) AdvanceJob(c *fiber.Ctx) error {
	return h.transition(c, workflow.ActionAdvance)
}

// ApproveJob accepts completed work. Admin only.
func (h *JobHandler) ApproveJob(c *fiber.Ctx) error {
	return h.transition(c, workflow.ActionApprove)
}

// RejectJob refuses completed work. Admin only; where the job goes depends on the reject policy.
func (h *JobHandler) RejectJob(c *fiber.Ctx) error {
	return h.transition(c, workflow.ActionReject)
}

func (h *JobHandler) transition(c *fiber.Ctx, action workflow.Action) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidJobID)
	}

	job, err := h.job.Transition(c.Context(), actor, id, action)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobTransitionFailed)
	}
	return respond(c, fiber.StatusOK, job)
}

// SubmitCompletion godoc
// @Summary Submit the completion form of a job
// @Description Allowed for the assigned worker and admins. The job moves to Completed - Pending Approval.
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body workflow.CompletionForm true "Completion form"
// @Success 200 {object} types.SuccessResponse[models.Job]
// @Failure 400 {object} types.ErrorResponse "Missing or malformed field"
// @Failure 409 {object} types.ErrorResponse "Job already approved or rejected"
// @Router /api/v1/jobs/{id}/completion [post]
func (h *JobHandler) SubmitCompletion(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return respondUnauthorized(c)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondWithError(c, err, ErrMsgInvalidJobID)
	}

	var form workflow.CompletionForm
	if err := c.BodyParser(&form); err != nil {
		return respondBadBody(c, err)
	}

	job, err := h.job.SubmitCompletion(c.Context(), actor, id, form)
	if err != nil {
		return respondWithError(c, err, ErrMsgJobCompletionFailed)
	}
	return respond(c, fiber.StatusOK, job)
}

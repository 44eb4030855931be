package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/types"
)

// MachineHandler handles HTTP requests for the machine catalog
type MachineHandler struct {
	*APIHandler
}

// NewMachineHandler creates a new MachineHandler instance
func NewMachineHandler(api *APIHandler) *MachineHandler {
	return &MachineHandler{
		APIHandler: api,
	}
}

// ListMachines returns the whole catalog, ordered by machine id
func (h *MachineHandler) ListMachines(c *fiber.Ctx) error {
	machines, err := h.machine.List(c.Context())
	if err != nil {
		return respondWithError(c, err, ErrMsgMachineListFailed)
	}
	return respond(c, fiber.StatusOK, machines)
}

// CreateMachine adds a machine to the catalog
func (h *MachineHandler) CreateMachine(c *fiber.Ctx) error {
	var req types.CreateMachineRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}

	machine, err := h.machine.Create(c.Context(), req)
	if err != nil {
		return respondWithError(c, err, ErrMsgMachineCreateFailed)
	}
	return respond(c, fiber.StatusCreated, machine)
}

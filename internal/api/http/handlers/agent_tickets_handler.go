package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickhawk/helpdesk/internal/api/dto"
	"github.com/tickhawk/helpdesk/internal/service"
	apperrors "github.com/tickhawk/helpdesk/pkg/util/errorutil"
)

// AgentTicketsHandler exposes staff only ticket actions.
type AgentTicketsHandler struct {
	service *service.TicketService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(ticketService *service.TicketService) *AgentTicketsHandler {
	return &AgentTicketsHandler{service: ticketService}
}

// MarkInReview POST /agent/tickets/:id/review.
func (h *AgentTicketsHandler) MarkInReview(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.MarkInReview(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketSummary(ticket))
}

// Transfer POST /agent/tickets/:id/transfer.
func (h *AgentTicketsHandler) Transfer(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Transfer(c.UserContext(), actor, c.Params("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketSummary(ticket))
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tickhawk/helpdesk/internal/api/dto"
	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/service"
	apperrors "github.com/tickhawk/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages the ticket endpoints shared by all roles and the customer actions.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), actor, service.ListFilter{
		Page:         parsePage(c.Query("page")),
		DepartmentID: c.Query("departmentId"),
		CompanyID:    c.Query("companyId"),
	})
	if err != nil {
		return err
	}
	resp := dto.TicketPageResponse{
		Tickets: make([]dto.TicketSummary, 0, len(page.Tickets)),
		Total:   page.Total,
		Page:    page.Page,
		Limit:   page.Limit,
	}
	for i := range page.Tickets {
		resp.Tickets = append(resp.Tickets, dto.NewTicketSummary(&page.Tickets[i]))
	}
	return c.JSON(resp)
}

// OpenTicket POST /tickets.
func (h *TicketsHandler) OpenTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.OpenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Open(c.UserContext(), actor, service.OpenTicketInput{
		DepartmentID: req.DepartmentID,
		Subject:      req.Subject,
		Content:      req.Content,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketDetail(ticket))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(ticket))
}

// AddComment POST /tickets/:id/comments and POST /agent/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, _, err := h.service.AppendComment(c.UserContext(), actor, c.Params("id"), domain.CommentInput{
		Content:       req.Content,
		Minutes:       req.Minutes,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCommentResponse(comment))
}

// CloseTicket POST /tickets/:id/close and POST /agent/tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketSummary(ticket))
}

func actorFrom(c *fiber.Ctx) (domain.Identity, error) {
	actor, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parsePage(val string) int {
	if val == "" {
		return 1
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 1
	}
	return parsed
}

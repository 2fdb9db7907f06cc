package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickhawk/helpdesk/internal/api/dto"
	"github.com/tickhawk/helpdesk/internal/service"
	apperrors "github.com/tickhawk/helpdesk/pkg/util/errorutil"
)

// CompaniesHandler exposes admin company management.
type CompaniesHandler struct {
	service *service.CompanyService
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(companyService *service.CompanyService) *CompaniesHandler {
	return &CompaniesHandler{service: companyService}
}

// Create POST /admin/companies.
func (h *CompaniesHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	company, err := h.service.Create(c.UserContext(), actor, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCompanyRecord(company))
}

// Update PATCH /admin/companies/:id.
func (h *CompaniesHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	company, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.CompanyInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCompanyRecord(company))
}

// Delete DELETE /admin/companies/:id.
func (h *CompaniesHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

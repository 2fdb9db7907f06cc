package dto

import (
	"time"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// CreateCompanyRequest payload.
type CreateCompanyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateCompanyRequest payload. Omitted fields are left unchanged.
type UpdateCompanyRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// CompanyRecord is the admin view of a company.
type CompanyRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCompanyRecord maps a company.
func NewCompanyRecord(c *domain.Company) CompanyRecord {
	return CompanyRecord{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

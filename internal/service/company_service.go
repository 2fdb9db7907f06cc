package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/events"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// CompanyService is the admin surface over company records. Every change is announced on the bus.
type CompanyService struct {
	companies repository.CompanyRepository
	bus       events.Bus
	logger    *zap.Logger
	now       func() time.Time
}

// CompanyInput carries the fields an admin may set. Nil means unchanged.
type CompanyInput struct {
	Name  *string
	Email *string
}

// NewCompanyService builds the service.
func NewCompanyService(companies repository.CompanyRepository, bus events.Bus, logger *zap.Logger, now func() time.Time) *CompanyService {
	if now == nil {
		now = time.Now
	}
	return &CompanyService{companies: companies, bus: bus, logger: logger, now: now}
}

// Create registers a company.
func (s *CompanyService) Create(ctx context.Context, actor domain.Identity, name, email string) (*domain.Company, error) {
	if _, ok := actor.(domain.Admin); !ok {
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidCompany
	}
	now := syncTime(s.now())
	company := &domain.Company{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

// Update renames a company and publishes company.updated with the fields that changed.
func (s *CompanyService) Update(ctx context.Context, actor domain.Identity, id string, in CompanyInput) (*domain.Company, error) {
	if _, ok := actor.(domain.Admin); !ok {
		return nil, domain.ErrForbidden
	}
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	if company == nil {
		return nil, domain.ErrCompanyNotFound
	}

	var changed events.CompanyFields
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidCompany
		}
		if name != company.Name {
			company.Name = name
			changed.Name = &name
		}
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != company.Email {
			company.Email = email
			changed.Email = &email
		}
	}
	if changed.Empty() {
		return company, nil
	}
	company.UpdatedAt = syncTime(s.now())
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}

	s.publish(ctx, events.CompanyEvent{
		Kind:       events.KindCompanyUpdated,
		CompanyID:  company.ID,
		Updates:    changed,
		OccurredAt: company.UpdatedAt,
	})
	return company, nil
}

// Delete removes a company and publishes company.deleted with its last known data.
func (s *CompanyService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if _, ok := actor.(domain.Admin); !ok {
		return domain.ErrForbidden
	}
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if company == nil {
		return domain.ErrCompanyNotFound
	}
	deleted, err := s.companies.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if !deleted {
		return domain.ErrCompanyNotFound
	}

	s.publish(ctx, events.CompanyEvent{
		Kind:        events.KindCompanyDeleted,
		CompanyID:   company.ID,
		CompanyData: events.CompanyData{Name: company.Name, Email: company.Email},
	})
	return nil
}

// publish stamps and sends ev. The record change is already committed, so a failed publish is
// logged rather than returned.
func (s *CompanyService) publish(ctx context.Context, ev events.CompanyEvent) {
	ev.ID = uuid.NewString()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = syncTime(s.now())
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Error("company event not published",
			zap.String("kind", string(ev.Kind)),
			zap.String("company_id", ev.CompanyID),
			zap.Error(err))
	}
}

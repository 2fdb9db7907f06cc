package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// PageSize is the fixed number of tickets per listing page.
const PageSize = 10

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets   repository.TicketRepository
	companies repository.CompanyRepository
	logger    *zap.Logger
	now       func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	Tickets   repository.TicketRepository
	Companies repository.CompanyRepository
	Logger    *zap.Logger
	Now       func() time.Time
}

// OpenTicketInput describes ticket creation payload.
type OpenTicketInput struct {
	DepartmentID string
	Subject      string
	Content      string
}

// ListFilter narrows the staff listing.
type ListFilter struct {
	Page         int
	DepartmentID string
	CompanyID    string
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Tickets []domain.Ticket
	Total   int
	Page    int
	Limit   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:   deps.Tickets,
		companies: deps.Companies,
		logger:    deps.Logger,
		now:       now,
	}
}

// Open creates a ticket for a customer of a live company.
func (s *TicketService) Open(ctx context.Context, actor domain.Identity, in OpenTicketInput) (*domain.Ticket, error) {
	customer, ok := actor.(domain.Customer)
	if !ok {
		return nil, domain.ErrForbidden
	}
	company, err := s.companies.GetByID(ctx, customer.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}
	if company == nil {
		return nil, domain.ErrForbidden
	}

	snapshot := domain.CompanySnapshot{
		ID:       company.ID,
		Name:     company.Name,
		Email:    company.Email,
		SyncedAt: syncTime(company.UpdatedAt),
	}
	ticket, err := domain.OpenTicket(customer, snapshot, in.DepartmentID, in.Subject, in.Content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}
	if err := s.resync(ctx, ticket, company); err != nil {
		return nil, fmt.Errorf("open ticket: %w", err)
	}
	s.logger.Info("ticket opened",
		zap.String("ticket_id", ticket.ID),
		zap.String("customer_id", customer.User.ID),
		zap.String("department_id", ticket.DepartmentID))
	return ticket, nil
}

// resync covers a company change committed between the company read and the ticket insert.
// Its message may already have been handled before the ticket existed.
func (s *TicketService) resync(ctx context.Context, ticket *domain.Ticket, read *domain.Company) error {
	latest, err := s.companies.GetByID(ctx, read.ID)
	if err != nil {
		return err
	}
	if latest == nil {
		at := syncTime(s.now())
		if _, err := s.tickets.ArchiveByCompany(ctx, read.ID, read.Name, at); err != nil {
			return err
		}
		ticket.ArchiveForDeletedCompany(read.Name, at)
		return nil
	}
	at := syncTime(latest.UpdatedAt)
	if !ticket.Company.SyncedAt.Before(at) {
		return nil
	}
	if _, err := s.tickets.UpdateCompanySnapshot(ctx, latest.ID, &latest.Name, &latest.Email, at); err != nil {
		return err
	}
	ticket.ApplyCompanyUpdate(&latest.Name, &latest.Email, at)
	return nil
}

// syncTime matches the precision Postgres stores and company messages carry.
func syncTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Get loads a ticket the actor may see.
func (s *TicketService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if ticket == nil {
		return nil, domain.ErrTicketNotFound
	}
	if !ticket.CanView(actor) {
		return nil, domain.ErrForbidden
	}
	return ticket, nil
}

// AppendComment adds a reply from actor and returns the stored comment and updated ticket.
func (s *TicketService) AppendComment(ctx context.Context, actor domain.Identity, id string, in domain.CommentInput) (*domain.Comment, *domain.Ticket, error) {
	var comment *domain.Comment
	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) (repository.TicketChange, error) {
		c, events, err := t.AppendComment(actor, in, s.now())
		if err != nil {
			return repository.TicketChange{}, err
		}
		comment = c
		return repository.TicketChange{Comment: c, Events: events}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("comment appended",
		zap.String("ticket_id", ticket.ID),
		zap.String("author_id", comment.AuthorID),
		zap.String("status", string(ticket.Status)),
		zap.Int("total_minutes", ticket.TotalMinutes))
	return comment, ticket, nil
}

// Close closes the ticket. Closing a closed ticket succeeds without a new event.
func (s *TicketService) Close(ctx context.Context, actor domain.Identity, id string) (*domain.Ticket, error) {
	return s.mutateWithEvent(ctx, id, "ticket closed", func(t *domain.Ticket) (*domain.Event, error) {
		return t.Close(actor, s.now())
	})
}

// Transfer moves the ticket to departmentID.
func (s *TicketService) Transfer(ctx context.Context, actor domain.Identity, id, departmentID string) (*domain.Ticket, error) {
	return s.mutateWithEvent(ctx, id, "ticket transferred", func(t *domain.Ticket) (*domain.Event, error) {
		return t.Transfer(actor, departmentID, s.now())
	})
}

// MarkInReview moves an in-progress ticket to in-review.
func (s *TicketService) MarkInReview(ctx context.Context, actor domain.Identity, id string) (*domain.Ticket, error) {
	return s.tickets.Mutate(ctx, id, func(t *domain.Ticket) (repository.TicketChange, error) {
		return repository.TicketChange{}, t.MarkInReview(actor, s.now())
	})
}

// ListForCustomer pages through the customer's own tickets. Pages start at 1.
func (s *TicketService) ListForCustomer(ctx context.Context, actor domain.Identity, page int) (TicketPage, error) {
	customer, ok := actor.(domain.Customer)
	if !ok {
		return TicketPage{}, domain.ErrForbidden
	}
	return s.list(ctx, repository.TicketFilter{CustomerID: customer.User.ID}, page)
}

// List pages through the tickets actor may see. Agents are limited to their departments.
func (s *TicketService) List(ctx context.Context, actor domain.Identity, f ListFilter) (TicketPage, error) {
	filter := repository.TicketFilter{CompanyID: f.CompanyID}
	switch a := actor.(type) {
	case domain.Customer:
		return s.ListForCustomer(ctx, actor, f.Page)
	case domain.Agent:
		filter.DepartmentIDs = a.DepartmentIDs
		if filter.DepartmentIDs == nil {
			filter.DepartmentIDs = []string{}
		}
		if f.DepartmentID != "" {
			if !a.InDepartment(f.DepartmentID) {
				return TicketPage{}, domain.ErrForbidden
			}
			filter.DepartmentIDs = []string{f.DepartmentID}
		}
	case domain.Admin:
		if f.DepartmentID != "" {
			filter.DepartmentIDs = []string{f.DepartmentID}
		}
	default:
		return TicketPage{}, domain.ErrForbidden
	}
	return s.list(ctx, filter, f.Page)
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter, page int) (TicketPage, error) {
	if page < 1 {
		page = 1
	}
	filter.Limit = PageSize
	filter.Offset = (page - 1) * PageSize

	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return TicketPage{}, fmt.Errorf("list tickets: %w", err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return TicketPage{Tickets: tickets, Total: total, Page: page, Limit: PageSize}, nil
}

func (s *TicketService) mutateWithEvent(ctx context.Context, id, msg string, apply func(*domain.Ticket) (*domain.Event, error)) (*domain.Ticket, error) {
	var event *domain.Event
	ticket, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) (repository.TicketChange, error) {
		ev, err := apply(t)
		if err != nil || ev == nil {
			return repository.TicketChange{}, err
		}
		event = ev
		return repository.TicketChange{Events: []domain.Event{*ev}}, nil
	})
	if err != nil {
		return nil, err
	}
	if event != nil {
		s.logger.Info(msg,
			zap.String("ticket_id", ticket.ID),
			zap.String("status", string(ticket.Status)),
			zap.String("department_id", ticket.DepartmentID))
	}
	return ticket, nil
}

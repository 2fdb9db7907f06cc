package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// Tickets is an in-memory repository.TicketRepository. A single lock serializes mutations.
type Tickets struct {
	mu   sync.Mutex
	byID map[string]*domain.Ticket
}

var _ repository.TicketRepository = (*Tickets)(nil)

// NewTickets creates an empty store.
func NewTickets() *Tickets {
	return &Tickets{byID: map[string]*domain.Ticket{}}
}

func (s *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[ticket.ID] = clone(ticket)
	return nil
}

func (s *Tickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(ticket), nil
}

func (s *Tickets) Mutate(ctx context.Context, id string, fn repository.MutateFunc) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}

	working := clone(stored)
	if _, err := fn(working); err != nil {
		return nil, err
	}
	working.TotalMinutes = domain.SumMinutes(working.Comments)
	// id may alias a request buffer; the map key must be the ticket's own string.
	s.byID[stored.ID] = working
	return clone(working), nil
}

func (s *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	s.mu.Lock()
	var matched []domain.Ticket
	for _, t := range s.byID {
		if filter.CustomerID != "" && t.CustomerID != filter.CustomerID {
			continue
		}
		if filter.CompanyID != "" && t.Company.ID != filter.CompanyID {
			continue
		}
		if filter.DepartmentIDs != nil && !slices.Contains(filter.DepartmentIDs, t.DepartmentID) {
			continue
		}
		matched = append(matched, *clone(t))
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	start := min(max(filter.Offset, 0), total)
	end := min(start+limit, total)
	return matched[start:end], total, nil
}

func (s *Tickets) UpdateCompanySnapshot(_ context.Context, companyID string, name, email *string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.byID {
		if t.Company.ID == companyID && t.ApplyCompanyUpdate(name, email, at) {
			n++
		}
	}
	return n, nil
}

func (s *Tickets) ArchiveByCompany(_ context.Context, companyID, companyName string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.byID {
		if t.Company.ID == companyID && t.ArchiveForDeletedCompany(companyName, at) {
			n++
		}
	}
	return n, nil
}

func clone(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.AgentID != nil {
		agent := *t.AgentID
		c.AgentID = &agent
	}
	c.Comments = make([]domain.Comment, len(t.Comments))
	for i, cm := range t.Comments {
		cm.AttachmentIDs = slices.Clone(cm.AttachmentIDs)
		if cm.Minutes != nil {
			minutes := *cm.Minutes
			cm.Minutes = &minutes
		}
		c.Comments[i] = cm
	}
	c.Events = slices.Clone(t.Events)
	return &c
}

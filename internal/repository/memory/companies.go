package memory

import (
	"context"
	"sync"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// Companies is an in-memory repository.CompanyRepository.
type Companies struct {
	mu   sync.RWMutex
	byID map[string]domain.Company
}

var _ repository.CompanyRepository = (*Companies)(nil)

// NewCompanies creates an empty store.
func NewCompanies() *Companies {
	return &Companies{byID: map[string]domain.Company{}}
}

func (c *Companies) Create(_ context.Context, company *domain.Company) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[company.ID] = *company
	return nil
}

func (c *Companies) Update(_ context.Context, company *domain.Company) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[company.ID]; !ok {
		return domain.ErrCompanyNotFound
	}
	c.byID[company.ID] = *company
	return nil
}

func (c *Companies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	company, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	return &company, nil
}

func (c *Companies) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false, nil
	}
	delete(c.byID, id)
	return true, nil
}

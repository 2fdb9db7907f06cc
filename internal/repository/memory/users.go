// Package memory holds in-process repository implementations. They back the service when no
// database is configured and serve as fakes in tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]domain.Credential
	byEmail map[string]string
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers creates an empty store.
func NewUsers() *Users {
	return &Users{byID: map[string]domain.Credential{}, byEmail: map[string]string{}}
}

func (u *Users) Create(_ context.Context, cred *domain.Credential) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	account := cred.Identity.Account()
	email := strings.ToLower(account.Email)
	if _, exists := u.byEmail[email]; exists {
		return fmt.Errorf("user %s already exists", account.Email)
	}
	u.byID[account.ID] = *cred
	u.byEmail[email] = account.ID
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	cred, ok := u.byID[id]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	u.mu.RLock()
	id, ok := u.byEmail[strings.ToLower(email)]
	u.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return u.GetByID(ctx, id)
}

func (u *Users) Count(_ context.Context) (int, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byID), nil
}

// Delete removes a user. Only tests use it.
func (u *Users) Delete(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if cred, ok := u.byID[id]; ok {
		delete(u.byEmail, strings.ToLower(cred.Identity.Account().Email))
		delete(u.byID, id)
	}
}

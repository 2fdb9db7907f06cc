package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository/memory"
)

// clock is a settable time source shared by services and the token manager.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeNotifier records reset mails instead of sending them.
type fakeNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, cred *domain.Credential, token string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[cred.Identity.Account().Email] = token
	return nil
}

func seedUser(t *testing.T, users *memory.Users, id domain.Identity, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &domain.Credential{Identity: id, PasswordHash: hash}))
}

func customer(id, companyID string) domain.Customer {
	return domain.Customer{User: domain.Account{ID: id, Email: id + "@customer.test"}, CompanyID: companyID}
}

func agent(id string, departments ...string) domain.Agent {
	return domain.Agent{User: domain.Account{ID: id, Email: id + "@staff.test"}, DepartmentIDs: departments}
}

func admin(id string) domain.Admin {
	return domain.Admin{User: domain.Account{ID: id, Email: id + "@staff.test"}}
}

func intPtr(v int) *int { return &v }

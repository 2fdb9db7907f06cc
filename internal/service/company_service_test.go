package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/events"
	"github.com/tickhawk/helpdesk/internal/observability"
)

// recordingBus captures published events without delivering them.
type recordingBus struct {
	published []events.CompanyEvent
	err       error
}

func (b *recordingBus) Publish(_ context.Context, ev events.CompanyEvent) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, ev)
	return nil
}

func (b *recordingBus) Subscribe(events.Kind, events.Handler) {}

func (b *recordingBus) Run(context.Context) error { return nil }

func TestCompanyUpdatePublishesChangedFields(t *testing.T) {
	f := newTicketFixture(t)
	bus := &recordingBus{}
	svc := NewCompanyService(f.companies, bus, zaptest.NewLogger(t), func() time.Time {
		return time.Date(2024, 5, 1, 9, 0, 0, 123456789, time.UTC)
	})
	ctx := context.Background()

	name := "Acme Corp"
	same := "ops@acme.test"
	company, err := svc.Update(ctx, admin("root"), "acme", CompanyInput{Name: &name, Email: &same})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", company.Name)

	require.Len(t, bus.published, 1)
	ev := bus.published[0]
	assert.Equal(t, events.KindCompanyUpdated, ev.Kind)
	require.NotNil(t, ev.Updates.Name)
	assert.Equal(t, "Acme Corp", *ev.Updates.Name)
	assert.Nil(t, ev.Updates.Email)
	assert.Equal(t, 123456000, ev.OccurredAt.Nanosecond())
	assert.NotEmpty(t, ev.ID)

	// Nothing changed, nothing published.
	_, err = svc.Update(ctx, admin("root"), "acme", CompanyInput{Name: &name})
	require.NoError(t, err)
	assert.Len(t, bus.published, 1)
}

func TestCompanyServiceGuards(t *testing.T) {
	f := newTicketFixture(t)
	svc := NewCompanyService(f.companies, &recordingBus{}, zaptest.NewLogger(t), nil)
	ctx := context.Background()
	name := "Other"
	blank := "  "

	_, err := svc.Update(ctx, agent("a1", "hardware"), "acme", CompanyInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Update(ctx, admin("root"), "missing", CompanyInput{Name: &name})
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
	_, err = svc.Update(ctx, admin("root"), "acme", CompanyInput{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
	assert.ErrorIs(t, svc.Delete(ctx, customer("c1", "acme"), "acme"), domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, admin("root"), "missing"), domain.ErrCompanyNotFound)

	_, err = svc.Create(ctx, admin("root"), " ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
	created, err := svc.Create(ctx, admin("root"), " Globex ", "hi@globex.test")
	require.NoError(t, err)
	assert.Equal(t, "Globex", created.Name)
}

func TestCompanyChangeReachesTicketsThroughBus(t *testing.T) {
	f := newTicketFixture(t)
	logger := zaptest.NewLogger(t)
	owner := customer("c1", "acme")
	ticket := f.open(t, owner, "hardware")

	bus := events.NewMemoryBus(8, logger)
	NewPropagator(f.tickets, logger, observability.NewMetrics()).Register(bus)
	f.clock.Advance(time.Second)
	svc := NewCompanyService(f.companies, bus, logger, f.clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx) //nolint:errcheck

	name := "Acme Corp"
	_, err := svc.Update(ctx, admin("root"), "acme", CompanyInput{Name: &name})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		stored, err := f.tickets.GetByID(ctx, ticket.ID)
		return err == nil && stored.Company.Name == "Acme Corp"
	}, time.Second, 10*time.Millisecond)

	f.clock.Advance(time.Second)
	require.NoError(t, svc.Delete(ctx, admin("root"), "acme"))
	assert.Eventually(t, func() bool {
		stored, err := f.tickets.GetByID(ctx, ticket.ID)
		return err == nil && stored.Status == domain.TicketStatusArchived && stored.Company.Name == "Acme Corp (Deleted)"
	}, time.Second, 10*time.Millisecond)

	company, err := f.companies.GetByID(ctx, "acme")
	require.NoError(t, err)
	assert.Nil(t, company)
}

func TestCompanyPublishFailureIsNotReturned(t *testing.T) {
	f := newTicketFixture(t)
	svc := NewCompanyService(f.companies, &recordingBus{err: errors.New("redis down")}, zaptest.NewLogger(t), nil)

	require.NoError(t, svc.Delete(context.Background(), admin("root"), "acme"))
}

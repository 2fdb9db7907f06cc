package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/events"
	"github.com/tickhawk/helpdesk/internal/observability"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// Propagator keeps the company snapshot embedded in tickets in line with the company record.
// Both handlers are idempotent: a change is applied only to tickets whose snapshot is older.
type Propagator struct {
	tickets repository.TicketRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewPropagator builds a propagator.
func NewPropagator(tickets repository.TicketRepository, logger *zap.Logger, metrics *observability.Metrics) *Propagator {
	return &Propagator{tickets: tickets, logger: logger, metrics: metrics}
}

// Register subscribes the handlers on bus.
func (p *Propagator) Register(bus events.Bus) {
	bus.Subscribe(events.KindCompanyUpdated, p.HandleCompanyUpdated)
	bus.Subscribe(events.KindCompanyDeleted, p.HandleCompanyDeleted)
}

// HandleCompanyUpdated copies the changed fields onto every ticket of the company.
func (p *Propagator) HandleCompanyUpdated(ctx context.Context, ev events.CompanyEvent) error {
	if ev.Updates.Empty() {
		p.logger.Debug("company update without changes", zap.String("company_id", ev.CompanyID))
		return nil
	}
	n, err := p.tickets.UpdateCompanySnapshot(ctx, ev.CompanyID, ev.Updates.Name, ev.Updates.Email, ev.OccurredAt)
	return p.finish(ev, n, err)
}

// HandleCompanyDeleted archives every ticket of the company.
func (p *Propagator) HandleCompanyDeleted(ctx context.Context, ev events.CompanyEvent) error {
	n, err := p.tickets.ArchiveByCompany(ctx, ev.CompanyID, ev.CompanyData.Name, ev.OccurredAt)
	return p.finish(ev, n, err)
}

func (p *Propagator) finish(ev events.CompanyEvent, affected int64, err error) error {
	p.metrics.RecordPropagation(string(ev.Kind), err == nil)
	if err != nil {
		p.logger.Error("company propagation failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("company_id", ev.CompanyID),
			zap.Error(err))
		return fmt.Errorf("propagate %s: %w", ev.Kind, err)
	}
	p.logger.Info("company change propagated",
		zap.String("kind", string(ev.Kind)),
		zap.String("company_id", ev.CompanyID),
		zap.Int64("tickets", affected))
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// TicketFilter narrows ticket listings. Empty fields do not filter.
type TicketFilter struct {
	CustomerID    string
	CompanyID     string
	DepartmentIDs []string
	Limit         int
	Offset        int
}

// TicketChange is what a mutation appended to the aggregate and must be persisted.
type TicketChange struct {
	Comment *domain.Comment
	Events  []domain.Event
}

// MutateFunc applies an aggregate operation to a locked ticket.
type MutateFunc func(t *domain.Ticket) (TicketChange, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// GetByID loads the ticket with comments and events. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// Mutate runs fn against the ticket while holding its row lock and persists the result
	// in the same transaction. totalMinutes is re-derived from the stored comments.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	UpdateCompanySnapshot(ctx context.Context, companyID string, name, email *string, at time.Time) (int64, error)
	ArchiveByCompany(ctx context.Context, companyID, companyName string, at time.Time) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, status, company_id, company_name, company_email, company_deleted, company_synced_at,
               customer_id, agent_id, department_id, subject, content, total_minutes, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	if _, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.Status,
		ticket.Company.ID,
		ticket.Company.Name,
		ticket.Company.Email,
		ticket.Company.Deleted,
		ticket.Company.SyncedAt,
		ticket.CustomerID,
		ticket.AgentID,
		ticket.DepartmentID,
		ticket.Subject,
		ticket.Content,
		ticket.TotalMinutes,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	); err != nil {
		return err
	}
	for i := range ticket.Events {
		if err := insertEvent(ctx, tx, &ticket.Events[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, nil
	}
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := r.load(ctx, r.pool, query, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ticket, err
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, domain.ErrTicketNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const lockQuery = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	ticket, err := r.load(ctx, tx, lockQuery, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}

	change, err := fn(ticket)
	if err != nil {
		return nil, err
	}

	if change.Comment != nil {
		if err := insertComment(ctx, tx, change.Comment); err != nil {
			return nil, fmt.Errorf("insert comment: %w", err)
		}
	}
	for i := range change.Events {
		if err := insertEvent(ctx, tx, &change.Events[i]); err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
	}

	const update = `
        UPDATE tickets SET status=$1, agent_id=$2, department_id=$3, updated_at=$4,
            total_minutes=(SELECT COALESCE(SUM(minutes), 0) FROM ticket_comments WHERE ticket_id=$5)
        WHERE id=$5
        RETURNING total_minutes`
	if err := tx.QueryRow(ctx, update,
		ticket.Status,
		ticket.AgentID,
		ticket.DepartmentID,
		ticket.UpdatedAt,
		ticket.ID,
	).Scan(&ticket.TotalMinutes); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	if (filter.CustomerID != "" && !validID(filter.CustomerID)) || (filter.CompanyID != "" && !validID(filter.CompanyID)) {
		return nil, 0, nil
	}
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if filter.DepartmentIDs != nil {
		args = append(args, filter.DepartmentIDs)
		clauses = append(clauses, fmt.Sprintf("department_id = ANY($%d)", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC, id LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) UpdateCompanySnapshot(ctx context.Context, companyID string, name, email *string, at time.Time) (int64, error) {
	if !validID(companyID) {
		return 0, nil
	}
	const query = `
        UPDATE tickets SET
            company_name=COALESCE($2, company_name),
            company_email=COALESCE($3, company_email),
            company_synced_at=$4
        WHERE company_id=$1 AND company_synced_at < $4`
	cmd, err := r.pool.Exec(ctx, query, companyID, name, email, at)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) ArchiveByCompany(ctx context.Context, companyID, companyName string, at time.Time) (int64, error) {
	if !validID(companyID) {
		return 0, nil
	}
	const query = `
        UPDATE tickets SET
            status=$2,
            company_name=$3,
            company_deleted=TRUE,
            company_synced_at=$4
        WHERE company_id=$1 AND company_synced_at < $4`
	cmd, err := r.pool.Exec(ctx, query, companyID, domain.TicketStatusArchived, domain.DeletedCompanyName(companyName), at)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ticketRepository) load(ctx context.Context, q querier, query, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if ticket.Comments, err = listComments(ctx, q, ticket.ID); err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	if ticket.Events, err = listEvents(ctx, q, ticket.ID); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Status,
		&ticket.Company.ID,
		&ticket.Company.Name,
		&ticket.Company.Email,
		&ticket.Company.Deleted,
		&ticket.Company.SyncedAt,
		&ticket.CustomerID,
		&ticket.AgentID,
		&ticket.DepartmentID,
		&ticket.Subject,
		&ticket.Content,
		&ticket.TotalMinutes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

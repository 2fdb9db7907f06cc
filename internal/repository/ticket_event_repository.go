package repository

import (
	"context"

	"github.com/tickhawk/helpdesk/internal/domain"
)

func insertEvent(ctx context.Context, q querier, ev *domain.Event) error {
	const query = `
        INSERT INTO ticket_events (id, ticket_id, author_id, type, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := q.Exec(ctx, query, ev.ID, ev.TicketID, ev.AuthorID, ev.Type, ev.CreatedAt)
	return err
}

func listEvents(ctx context.Context, q querier, ticketID string) ([]domain.Event, error) {
	const query = `
        SELECT id, ticket_id, author_id, type, created_at
        FROM ticket_events WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.TicketID, &ev.AuthorID, &ev.Type, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertComment(ctx context.Context, q querier, c *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, content, minutes, attachment_ids, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	attachments := c.AttachmentIDs
	if attachments == nil {
		attachments = []string{}
	}
	_, err := q.Exec(ctx, query,
		c.ID,
		c.TicketID,
		c.AuthorID,
		c.Content,
		c.Minutes,
		attachments,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func listComments(ctx context.Context, q querier, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, minutes, attachment_ids, created_at, updated_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID,
			&c.TicketID,
			&c.AuthorID,
			&c.Content,
			&c.Minutes,
			&c.AttachmentIDs,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

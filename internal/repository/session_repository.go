package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// SessionRepository persists session token records.
type SessionRepository interface {
	Create(ctx context.Context, rec *domain.SessionToken) error
	// FindByPair matches both digests exactly. Returns (nil, nil) when absent.
	FindByPair(ctx context.Context, accessDigest, refreshDigest string) (*domain.SessionToken, error)
	FindByID(ctx context.Context, id string) (*domain.SessionToken, error)
	// Block flips blocked to true. It reports false when the record was already blocked or missing.
	Block(ctx context.Context, id string) (bool, error)
	DeleteByAccess(ctx context.Context, accessDigest, sessionID string) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

const sessionColumns = `id, subject_id, access_token_digest, refresh_token_digest, blocked, expiration, created_at`

func (r *sessionRepository) Create(ctx context.Context, rec *domain.SessionToken) error {
	const query = `
        INSERT INTO session_tokens (` + sessionColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.SubjectID,
		rec.AccessTokenDigest,
		rec.RefreshTokenDigest,
		rec.Blocked,
		rec.Expiration,
		rec.CreatedAt,
	)
	return err
}

func (r *sessionRepository) FindByPair(ctx context.Context, accessDigest, refreshDigest string) (*domain.SessionToken, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM session_tokens WHERE access_token_digest=$1 AND refresh_token_digest=$2
        LIMIT 1`
	return r.fetchSingle(ctx, query, accessDigest, refreshDigest)
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*domain.SessionToken, error) {
	if !validID(id) {
		return nil, nil
	}
	const query = `SELECT ` + sessionColumns + ` FROM session_tokens WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *sessionRepository) Block(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	const query = `UPDATE session_tokens SET blocked=TRUE WHERE id=$1 AND blocked=FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *sessionRepository) DeleteByAccess(ctx context.Context, accessDigest, sessionID string) (int64, error) {
	const query = `DELETE FROM session_tokens WHERE access_token_digest=$1 OR id::text=$2`
	cmd, err := r.pool.Exec(ctx, query, accessDigest, sessionID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *sessionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM session_tokens WHERE created_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *sessionRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.SessionToken, error) {
	var rec domain.SessionToken
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rec.ID,
		&rec.SubjectID,
		&rec.AccessTokenDigest,
		&rec.RefreshTokenDigest,
		&rec.Blocked,
		&rec.Expiration,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

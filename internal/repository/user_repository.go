package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// UserRepository reads credentials. Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO users (id, name, email, password_hash, role, company_id, department_ids)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	account := cred.Identity.Account()
	companyID, departmentIDs := domain.Affiliation(cred.Identity)
	if departmentIDs == nil {
		departmentIDs = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		cred.PasswordHash,
		cred.Identity.Role(),
		nullable(companyID),
		departmentIDs,
	).Scan(&cred.CreatedAt, &cred.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	if !validID(id) {
		return nil, nil
	}
	const query = `
        SELECT id, name, email, password_hash, role, company_id, department_ids, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	const query = `
        SELECT id, name, email, password_hash, role, company_id, department_ids, created_at, updated_at
        FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Credential, error) {
	var (
		account       domain.Account
		cred          domain.Credential
		role          string
		companyID     *string
		departmentIDs []string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&cred.PasswordHash,
		&role,
		&companyID,
		&departmentIDs,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	identity, err := domain.NewIdentity(domain.Role(role), account, deref(companyID), departmentIDs)
	if err != nil {
		return nil, fmt.Errorf("decode user %s: %w", account.ID, err)
	}
	cred.Identity = identity
	return &cred, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steeven-js/madinia-cyber/internal/domain"
	"github.com/steeven-js/madinia-cyber/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ repository.OperatorRepository = (*Repository)(nil)

// CreateOperator inserts an operator. A duplicate email yields repository.ErrConflict.
func (r *Repository) CreateOperator(ctx context.Context, operator *domain.Operator) error {
	const query = `INSERT INTO operators (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, operator.ID, operator.Email, operator.Name, operator.PasswordHash, operator.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

// GetOperatorByEmail fetches an operator by email, case-insensitively.
func (r *Repository) GetOperatorByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM operators WHERE lower(email) = lower($1)`
	return r.scanOperator(r.pool.QueryRow(ctx, query, email))
}

// GetOperatorByID retrieves an operator by identifier.
func (r *Repository) GetOperatorByID(ctx context.Context, id string) (*domain.Operator, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM operators WHERE id = $1`
	return r.scanOperator(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) scanOperator(row pgx.Row) (*domain.Operator, error) {
	var o domain.Operator
	if err := row.Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			// malformed uuid
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

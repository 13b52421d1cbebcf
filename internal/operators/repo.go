package operators

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("operators: not found")

// Repository provides PostgreSQL backed persistence for operators.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, id int64) (*Operator, error) {
	const query = `SELECT id, name, code, pin_hash, is_active, created_at FROM operators WHERE id = $1`

	var op Operator
	err := r.pool.QueryRow(ctx, query, id).Scan(&op.ID, &op.Name, &op.Code, &op.PINHash, &op.IsActive, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("operators: get: %w", err)
	}
	return &op, nil
}

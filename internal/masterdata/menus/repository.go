package menus

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("menus: not found")

// Repository provides PostgreSQL backed persistence for menus.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, id int64) (*Menu, error) {
	const query = `
		SELECT id, name, category, unit_price, is_active, created_at, updated_at
		FROM menus WHERE id = $1`

	var m Menu
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Category, &m.UnitPrice, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("menus: get: %w", err)
	}
	return &m, nil
}

// ListActive returns every sellable menu entry.
func (r *Repository) ListActive(ctx context.Context) ([]Menu, error) {
	const query = `
		SELECT id, name, category, unit_price, is_active, created_at, updated_at
		FROM menus WHERE is_active
		ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("menus: list: %w", err)
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.UnitPrice, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("menus: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, m Menu) (int64, error) {
	const query = `
		INSERT INTO menus (name, category, unit_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query, m.Name, m.Category, m.UnitPrice).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("menus: create: %w", err)
	}
	return id, nil
}

func (r *Repository) SetPrice(ctx context.Context, id int64, unitPrice int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE menus SET unit_price = $2, updated_at = NOW() WHERE id = $1`, id, unitPrice)
	if err != nil {
		return fmt.Errorf("menus: set price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

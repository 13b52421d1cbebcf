package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("customers: not found")

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	const query = `
		SELECT id, name, email, phone, is_walk_in, is_active, notes, created_at, updated_at
		FROM customers WHERE id = $1`

	var c Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsWalkIn, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: get: %w", err)
	}
	return &c, nil
}

// GetWalkIn returns the dedicated walk-in customer used by the POS terminal.
func (r *Repository) GetWalkIn(ctx context.Context) (*Customer, error) {
	const query = `
		SELECT id, name, email, phone, is_walk_in, is_active, notes, created_at, updated_at
		FROM customers WHERE is_walk_in AND is_active
		ORDER BY id LIMIT 1`

	var c Customer
	err := r.pool.QueryRow(ctx, query).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsWalkIn, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: get walk-in: %w", err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, name, email, phone, is_walk_in, is_active, notes, created_at, updated_at
		FROM customers WHERE is_active`
	args := []any{}
	if search != "" {
		query += ` AND (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsWalkIn, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of active customers matching the search term.
func (r *Repository) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM customers WHERE is_active`
	args := []any{}
	if search != "" {
		query += ` AND (name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("customers: count: %w", err)
	}
	return total, nil
}

func (r *Repository) Create(ctx context.Context, c Customer) (int64, error) {
	const query = `
		INSERT INTO customers (name, email, phone, is_walk_in, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query, c.Name, c.Email, c.Phone, c.IsWalkIn, c.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("customers: create: %w", err)
	}
	return id, nil
}

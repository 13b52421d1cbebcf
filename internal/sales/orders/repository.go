package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/db"
)

var ErrNotFound = errors.New("orders: not found")

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTx inserts an order inside the caller's transaction.
func (r *Repository) CreateTx(ctx context.Context, q db.DBTX, o Order) (int64, error) {
	const query = `
		INSERT INTO orders (
			order_number, customer_id, order_date, event_date, status,
			subtotal, tax, total, paid_amount, payment_type, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		o.OrderNumber, o.CustomerID, o.OrderDate, o.EventDate, o.Status,
		o.Subtotal, o.Tax, o.Total, o.PaidAmount, o.PaymentType, o.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("orders: create: %w", err)
	}
	return id, nil
}

// InsertItemTx inserts one order item inside the caller's transaction.
func (r *Repository) InsertItemTx(ctx context.Context, q db.DBTX, item OrderItem) (int64, error) {
	const query = `
		INSERT INTO order_items (order_id, menu_id, menu_name, quantity, unit_price, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		item.OrderID, item.MenuID, item.MenuName, item.Quantity, item.UnitPrice, item.Total,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("orders: insert item: %w", err)
	}
	return id, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	const query = `
		SELECT id, order_number, customer_id, order_date, event_date, status,
			subtotal, tax, total, paid_amount, payment_type, notes, created_at, updated_at
		FROM orders WHERE id = $1`

	var o Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.OrderDate, &o.EventDate, &o.Status,
		&o.Subtotal, &o.Tax, &o.Total, &o.PaidAmount, &o.PaymentType, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("orders: get: %w", err)
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	const query = `
		SELECT id, order_id, menu_id, menu_name, quantity, unit_price, total, created_at
		FROM order_items WHERE order_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: list items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuID, &it.MenuName, &it.Quantity, &it.UnitPrice, &it.Total, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("orders: scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	where := conditions[0]
	for i := 1; i < len(conditions); i++ {
		where += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT id, order_number, customer_id, order_date, event_date, status,
			subtotal, tax, total, paid_amount, payment_type, notes, created_at, updated_at
		FROM orders WHERE %s
		ORDER BY order_date DESC, id DESC
		LIMIT %d OFFSET %d`, where, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.CustomerID, &o.OrderDate, &o.EventDate, &o.Status,
			&o.Subtotal, &o.Tax, &o.Total, &o.PaidAmount, &o.PaymentType, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("orders: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// UpdateStatus moves an order to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("orders: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusTx is UpdateStatus inside the caller's transaction.
func (r *Repository) UpdateStatusTx(ctx context.Context, q db.DBTX, id int64, status OrderStatus) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("orders: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaidAmountTx records the amount received against the order.
func (r *Repository) SetPaidAmountTx(ctx context.Context, q db.DBTX, id int64, paid int64) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders SET paid_amount = $2, updated_at = NOW() WHERE id = $1`, id, paid)
	if err != nil {
		return fmt.Errorf("orders: set paid amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrdersRequest filters the order list.
type ListOrdersRequest struct {
	CustomerID *int64
	Status     *OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

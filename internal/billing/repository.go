package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/db"
)

var ErrNotFound = errors.New("billing: not found")

// Repository provides PostgreSQL backed persistence for invoices and payments.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateInvoiceTx inserts an invoice inside the caller's transaction.
func (r *Repository) CreateInvoiceTx(ctx context.Context, q db.DBTX, inv Invoice) (int64, error) {
	const query = `
		INSERT INTO invoices (
			invoice_number, order_id, invoice_date, due_date, amount, tax_amount,
			total_amount, status, gateway_order_id, gateway_transaction_id, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		inv.InvoiceNumber, inv.OrderID, inv.InvoiceDate, inv.DueDate, inv.Amount, inv.TaxAmount,
		inv.TotalAmount, inv.Status, inv.GatewayOrderID, inv.GatewayTransactionID, inv.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("billing: create invoice: %w", err)
	}
	return id, nil
}

// CreatePaymentTx inserts a payment inside the caller's transaction.
func (r *Repository) CreatePaymentTx(ctx context.Context, q db.DBTX, p Payment) (int64, error) {
	const query = `
		INSERT INTO payments (
			order_id, invoice_id, session_id, payment_date, amount, method,
			payment_type, reference_number, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		p.OrderID, p.InvoiceID, p.SessionID, p.PaymentDate, p.Amount, p.Method,
		p.PaymentType, p.ReferenceNumber, p.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("billing: create payment: %w", err)
	}
	return id, nil
}

// CreatePayment inserts a payment outside any transaction.
func (r *Repository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	return r.CreatePaymentTx(ctx, r.pool, p)
}

const invoiceColumns = `id, invoice_number, order_id, invoice_date, due_date, amount, tax_amount,
	total_amount, status, gateway_order_id, gateway_transaction_id, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.InvoiceDate, &inv.DueDate, &inv.Amount,
		&inv.TaxAmount, &inv.TotalAmount, &inv.Status, &inv.GatewayOrderID, &inv.GatewayTransactionID,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("billing: scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)
	return scanInvoice(r.pool.QueryRow(ctx, query, id))
}

// GetInvoiceByGatewayOrderID resolves the invoice a webhook notification
// refers to.
func (r *Repository) GetInvoiceByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE gateway_order_id = $1`, invoiceColumns)
	return scanInvoice(r.pool.QueryRow(ctx, query, gatewayOrderID))
}

// SettleInvoice atomically flips the invoice to paid, records the payment and
// completes the order. The compare-and-set makes the poll and webhook writers
// safe under any interleaving: the loser of the race sees applied=false and
// leaves no duplicate payment behind.
func (r *Repository) SettleInvoice(ctx context.Context, invoiceID int64, gatewayTransactionID string, p Payment) (bool, error) {
	applied := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const cas = `
			UPDATE invoices
			SET status = 'paid',
				gateway_transaction_id = COALESCE(NULLIF($2, ''), gateway_transaction_id),
				updated_at = NOW()
			WHERE id = $1 AND status NOT IN ('paid', 'cancelled')`

		tag, err := tx.Exec(ctx, cas, invoiceID, gatewayTransactionID)
		if err != nil {
			return fmt.Errorf("billing: settle cas: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := r.CreatePaymentTx(ctx, tx, p); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET paid_amount = paid_amount + $2, status = 'completed', updated_at = NOW() WHERE id = $1`,
			p.OrderID, p.Amount)
		if err != nil {
			return fmt.Errorf("billing: settle order update: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// DeleteInvoice removes a pending invoice after an operator cancel.
func (r *Repository) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status <> 'paid'`, id)
	if err != nil {
		return fmt.Errorf("billing: delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStalePending returns sent QRIS invoices created before the cutoff.
// The expiry sweep cancels them.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time) ([]Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		WHERE status = 'sent' AND gateway_order_id IS NOT NULL AND created_at < $1
		ORDER BY created_at`, invoiceColumns)

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("billing: list stale pending: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// CancelInvoice moves a non-paid invoice to cancelled.
func (r *Repository) CancelInvoice(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = 'cancelled', updated_at = NOW() WHERE id = $1 AND status NOT IN ('paid', 'cancelled')`, id)
	if err != nil {
		return false, fmt.Errorf("billing: cancel invoice: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListInvoices(ctx context.Context, status *InvoiceStatus, limit, offset int) ([]Invoice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices`, invoiceColumns)
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY invoice_date DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *Repository) ListPayments(ctx context.Context, sessionID *int64, limit, offset int) ([]Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, order_id, invoice_id, session_id, payment_date, amount, method,
			payment_type, reference_number, notes, created_at
		FROM payments`
	args := []any{}
	if sessionID != nil {
		query += ` WHERE session_id = $1`
		args = append(args, *sessionID)
	}
	query += fmt.Sprintf(` ORDER BY payment_date DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.InvoiceID, &p.SessionID, &p.PaymentDate, &p.Amount,
			&p.Method, &p.PaymentType, &p.ReferenceNumber, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("billing: scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SumCashPayments totals cash received inside one register session, used by
// the drawer close to report expected balance.
func (r *Repository) SumCashPayments(ctx context.Context, sessionID int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE session_id = $1 AND method = 'cash'`,
		sessionID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("billing: sum cash payments: %w", err)
	}
	return total, nil
}

package pos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/platform/db"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

// Repository persists register sessions and writes checkout bundles. It
// composes the orders and billing repositories so the whole bundle lands in
// one transaction.
type Repository struct {
	pool    *pgxpool.Pool
	orders  *orders.Repository
	billing *billing.Repository
}

func NewRepository(pool *pgxpool.Pool, ordersRepo *orders.Repository, billingRepo *billing.Repository) *Repository {
	return &Repository{pool: pool, orders: ordersRepo, billing: billingRepo}
}

const sessionColumns = `id, operator_id, opened_at, opening_balance, closed_at, closing_balance,
	expected_balance, variance, status`

func scanSession(row pgx.Row) (*RegisterSession, error) {
	var s RegisterSession
	err := row.Scan(
		&s.ID, &s.OperatorID, &s.OpenedAt, &s.OpeningBalance, &s.ClosedAt, &s.ClosingBalance,
		&s.ExpectedBalance, &s.Variance, &s.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("pos: scan session: %w", err)
	}
	return &s, nil
}

// OpenSession inserts a new open session. The partial unique index on
// (operator_id) WHERE status = 'open' turns a concurrent double-open into a
// unique violation instead of two open drawers.
func (r *Repository) OpenSession(ctx context.Context, operatorID, openingBalance int64) (*RegisterSession, error) {
	query := fmt.Sprintf(`
		INSERT INTO register_sessions (operator_id, opened_at, opening_balance, status)
		VALUES ($1, NOW(), $2, 'open')
		RETURNING %s`, sessionColumns)

	sess, err := scanSession(r.pool.QueryRow(ctx, query, operatorID, openingBalance))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionAlreadyOpen
		}
		return nil, fmt.Errorf("pos: open session: %w", err)
	}
	return sess, nil
}

// GetOpenSession returns the operator's open session, ErrNoOpenSession when
// the drawer is closed.
func (r *Repository) GetOpenSession(ctx context.Context, operatorID int64) (*RegisterSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM register_sessions
		WHERE operator_id = $1 AND status = 'open'
		ORDER BY opened_at DESC
		LIMIT 1`, sessionColumns)
	return scanSession(r.pool.QueryRow(ctx, query, operatorID))
}

func (r *Repository) GetSession(ctx context.Context, sessionID int64) (*RegisterSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM register_sessions WHERE id = $1`, sessionColumns)
	return scanSession(r.pool.QueryRow(ctx, query, sessionID))
}

// CloseSession stamps a session closed with the counted balance and the
// computed expectation. Closing twice finds no open row and fails.
func (r *Repository) CloseSession(ctx context.Context, sessionID, closingBalance, expectedBalance int64) (*RegisterSession, error) {
	query := fmt.Sprintf(`
		UPDATE register_sessions
		SET status = 'closed',
			closed_at = NOW(),
			closing_balance = $2,
			expected_balance = $3,
			variance = $2 - $3
		WHERE id = $1 AND status = 'open'
		RETURNING %s`, sessionColumns)
	return scanSession(r.pool.QueryRow(ctx, query, sessionID, closingBalance, expectedBalance))
}

// SaleBundle is everything one checkout writes: the order, its items, the
// invoice, and for the cash path the payment.
type SaleBundle struct {
	Order   orders.Order
	Items   []orders.OrderItem
	Invoice billing.Invoice
	Payment *billing.Payment
}

// SaleIDs are the generated ids of a committed bundle.
type SaleIDs struct {
	OrderID   int64
	InvoiceID int64
	PaymentID int64
}

// CreateSaleBundle writes the whole bundle in one transaction so a failure
// partway leaves nothing behind, never a partially itemized order.
func (r *Repository) CreateSaleBundle(ctx context.Context, bundle SaleBundle) (SaleIDs, error) {
	var ids SaleIDs
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		orderID, err := r.orders.CreateTx(ctx, tx, bundle.Order)
		if err != nil {
			return err
		}
		ids.OrderID = orderID

		for _, item := range bundle.Items {
			item.OrderID = orderID
			if _, err := r.orders.InsertItemTx(ctx, tx, item); err != nil {
				return err
			}
		}

		inv := bundle.Invoice
		inv.OrderID = orderID
		invoiceID, err := r.billing.CreateInvoiceTx(ctx, tx, inv)
		if err != nil {
			return err
		}
		ids.InvoiceID = invoiceID

		if bundle.Payment != nil {
			p := *bundle.Payment
			p.OrderID = orderID
			p.InvoiceID = invoiceID
			paymentID, err := r.billing.CreatePaymentTx(ctx, tx, p)
			if err != nil {
				return err
			}
			ids.PaymentID = paymentID

			if err := r.orders.SetPaidAmountTx(ctx, tx, orderID, p.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SaleIDs{}, err
	}
	return ids, nil
}

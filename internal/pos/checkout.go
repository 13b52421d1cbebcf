package pos

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/customers"
	"github.com/Createch-Studio/KateringPro-sub000/internal/observability"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

// Precondition failures, checked in this order at submission time. First
// failure wins and nothing is written.
var (
	ErrRegisterClosed = errors.New("pos: no open register session for operator")
	ErrEmptyCart      = errors.New("pos: cart is empty")
	ErrNoCustomer     = errors.New("pos: no customer resolved")
	ErrInvalidMethod  = errors.New("pos: payment method not valid for this path")
)

// SalePort writes one checkout bundle atomically.
type SalePort interface {
	CreateSaleBundle(ctx context.Context, bundle SaleBundle) (SaleIDs, error)
}

// SessionGate answers whether the operator's drawer is open right now. The
// check runs at submission, not cart-building time, so a drawer closed in
// another tab blocks the sale.
type SessionGate interface {
	GetOpenSession(ctx context.Context, operatorID int64) (*RegisterSession, error)
}

// CustomerResolver resolves the buyer; nil id means the walk-in record.
type CustomerResolver interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
	ResolveWalkIn(ctx context.Context) (*customers.Customer, error)
}

// IdempotencyGuard reserves a submission key; a duplicate key means the same
// sale was already submitted.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// CheckoutRequest is one cash-path submission.
type CheckoutRequest struct {
	OperatorID     int64
	CustomerID     *int64
	Method         billing.PaymentMethod
	IdempotencyKey string
	Notes          *string
}

// CheckoutService is the orchestrator for the synchronous payment path: the
// order, its items, the paid invoice and the payment are committed as one
// unit, then the cart is cleared.
type CheckoutService struct {
	carts     *CartStore
	sessions  SessionGate
	sales     SalePort
	customers CustomerResolver
	idem      IdempotencyGuard
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewCheckoutService(
	carts *CartStore,
	sessions SessionGate,
	sales SalePort,
	customerSvc CustomerResolver,
	idem IdempotencyGuard,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		carts:     carts,
		sessions:  sessions,
		sales:     sales,
		customers: customerSvc,
		idem:      idem,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// preconditions runs the submission gate. Order matters: register first,
// then cart, then customer.
func (s *CheckoutService) preconditions(ctx context.Context, operatorID int64, customerID *int64) (*RegisterSession, []CartLine, *customers.Customer, error) {
	sess, err := s.sessions.GetOpenSession(ctx, operatorID)
	if err != nil {
		if errors.Is(err, ErrNoOpenSession) {
			return nil, nil, nil, ErrRegisterClosed
		}
		return nil, nil, nil, err
	}
	if sess == nil || sess.Status != SessionOpen {
		return nil, nil, nil, ErrRegisterClosed
	}

	lines := s.carts.CartFor(operatorID).Lines()
	if len(lines) == 0 {
		return nil, nil, nil, ErrEmptyCart
	}

	var cust *customers.Customer
	if customerID != nil {
		cust, err = s.customers.Get(ctx, *customerID)
	} else {
		cust, err = s.customers.ResolveWalkIn(ctx)
	}
	if err != nil || cust == nil {
		return nil, nil, nil, ErrNoCustomer
	}
	return sess, lines, cust, nil
}

// Checkout finalizes a cash/manual sale.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	if req.Method == billing.MethodQRIS {
		return nil, ErrInvalidMethod
	}
	if req.Method == "" {
		req.Method = billing.MethodCash
	}

	sess, lines, cust, err := s.preconditions(ctx, req.OperatorID, req.CustomerID)
	if err != nil {
		s.observe(string(req.Method), "precondition_failed")
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, "pos.checkout"); err != nil {
			return nil, err
		}
	}

	now := s.now()
	total := lineTotal(lines)

	bundle := SaleBundle{
		Order: orders.Order{
			OrderNumber: NewOrderNumber(now),
			CustomerID:  cust.ID,
			OrderDate:   now,
			Status:      orders.OrderStatusCompleted,
			Subtotal:    total,
			Tax:         0,
			Total:       total,
			PaymentType: string(billing.TypeFullPayment),
			Notes:       req.Notes,
		},
		Items: orderItems(lines),
		Invoice: billing.Invoice{
			InvoiceNumber: NewInvoiceNumber(now),
			InvoiceDate:   now,
			DueDate:       now,
			Amount:        total,
			TaxAmount:     0,
			TotalAmount:   total,
			Status:        billing.InvoiceStatusPaid,
		},
		Payment: &billing.Payment{
			SessionID:   &sess.ID,
			PaymentDate: now,
			Amount:      total,
			Method:      req.Method,
			PaymentType: billing.TypeFullPayment,
		},
	}

	ids, err := s.sales.CreateSaleBundle(ctx, bundle)
	if err != nil {
		// Free the key so the operator can retry the same sale.
		if req.IdempotencyKey != "" && s.idem != nil {
			if delErr := s.idem.Delete(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Warn("idempotency key release failed", slog.Any("error", delErr))
			}
		}
		s.observe(string(req.Method), "failed")
		return nil, err
	}

	s.carts.CartFor(req.OperatorID).Clear()
	s.observe(string(req.Method), "completed")
	s.logger.Info("cash checkout completed",
		slog.Int64("order_id", ids.OrderID),
		slog.Int64("invoice_id", ids.InvoiceID),
		slog.Int64("session_id", sess.ID),
		slog.Int64("total", total),
		slog.String("method", string(req.Method)))

	return &Receipt{
		OrderID:       ids.OrderID,
		OrderNumber:   bundle.Order.OrderNumber,
		InvoiceNumber: bundle.Invoice.InvoiceNumber,
		IssuedAt:      now,
		CustomerName:  cust.Name,
		Method:        req.Method,
		Lines:         receiptLines(lines),
		Total:         total,
	}, nil
}

func (s *CheckoutService) observe(method, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(method, outcome)
	}
}

func lineTotal(lines []CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Total()
	}
	return sum
}

func orderItems(lines []CartLine) []orders.OrderItem {
	items := make([]orders.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, orders.OrderItem{
			MenuID:    l.Item.MenuID,
			MenuName:  l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.UnitPrice,
			Total:     l.Total(),
		})
	}
	return items
}

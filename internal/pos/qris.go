package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/customers"
	"github.com/Createch-Studio/KateringPro-sub000/internal/observability"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

// Charger requests QRIS charges from the payment gateway.
type Charger interface {
	ChargeQRIS(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResponse, error)
}

// InvoiceStore is the invoice access the coordinator needs for the poll and
// cancel paths.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
}

// OrderCanceller voids the speculative order when an attempt is cancelled.
type OrderCanceller interface {
	UpdateStatus(ctx context.Context, id int64, status orders.OrderStatus) error
}

// QRISStatus is the poll answer for one attempt.
type QRISStatus struct {
	GatewayOrderID string       `json:"gateway_order_id"`
	State          AttemptState `json:"state"`
	QRCodeURL      string       `json:"qr_code_url,omitempty"`
	Receipt        *Receipt     `json:"receipt,omitempty"`
}

// QRISCoordinator drives the asynchronous payment path. It charges the
// gateway, writes the speculative order/invoice bundle, tracks the attempt in
// the registry, and resolves it by operator poll or by observing the webhook
// reconciler's settlement.
type QRISCoordinator struct {
	carts     *CartStore
	sessions  SessionGate
	sales     SalePort
	customers CustomerResolver
	invoices  InvoiceStore
	orders    OrderCanceller
	charger   Charger
	registry  *AttemptRegistry
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time

	// Collapses concurrent polls for the same attempt into one invoice
	// fetch, so a double-clicked "Cek Status" cannot build two receipts.
	poll singleflight.Group
}

func NewQRISCoordinator(
	carts *CartStore,
	sessions SessionGate,
	sales SalePort,
	customerSvc CustomerResolver,
	invoices InvoiceStore,
	orderStore OrderCanceller,
	charger Charger,
	registry *AttemptRegistry,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *QRISCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &QRISCoordinator{
		carts:     carts,
		sessions:  sessions,
		sales:     sales,
		customers: customerSvc,
		invoices:  invoices,
		orders:    orderStore,
		charger:   charger,
		registry:  registry,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Start charges the gateway and writes the speculative sale. On gateway
// failure nothing is written and the cart stays intact for a retry. On
// success the attempt sits in awaiting_payment with the QR code URL; the
// cart is deliberately not cleared yet.
func (c *QRISCoordinator) Start(ctx context.Context, operatorID int64, customerID *int64) (*Attempt, error) {
	sess, lines, cust, err := c.checkPreconditions(ctx, operatorID, customerID)
	if err != nil {
		c.observe("precondition_failed")
		return nil, err
	}

	now := c.now()
	total := lineTotal(lines)
	gatewayOrderID := NewGatewayOrderID(now)

	chargeReq := gateway.ChargeRequest{
		OrderID:      gatewayOrderID,
		GrossAmount:  total,
		CustomerName: cust.Name,
	}
	if cust.Email != nil {
		chargeReq.CustomerEmail = *cust.Email
	}

	resp, err := c.charger.ChargeQRIS(ctx, chargeReq)
	if err != nil {
		c.observe("charge_failed")
		return nil, fmt.Errorf("pos: qris charge: %w", err)
	}
	qrURL, err := resp.QRCodeURL()
	if err != nil {
		c.observe("charge_failed")
		return nil, err
	}

	bundle := SaleBundle{
		Order: orders.Order{
			OrderNumber: NewOrderNumber(now),
			CustomerID:  cust.ID,
			OrderDate:   now,
			Status:      orders.OrderStatusConfirmed,
			Subtotal:    total,
			Tax:         0,
			Total:       total,
			PaidAmount:  0,
			PaymentType: string(billing.MethodQRIS),
		},
		Items: orderItems(lines),
		Invoice: billing.Invoice{
			InvoiceNumber:  NewInvoiceNumber(now),
			InvoiceDate:    now,
			DueDate:        now,
			Amount:         total,
			TaxAmount:      0,
			TotalAmount:    total,
			Status:         billing.InvoiceStatusSent,
			GatewayOrderID: &gatewayOrderID,
		},
		// No payment yet: it is written by whichever reconciliation path
		// observes the settlement.
	}

	ids, err := c.sales.CreateSaleBundle(ctx, bundle)
	if err != nil {
		c.observe("failed")
		return nil, err
	}

	attempt := Attempt{
		GatewayOrderID: gatewayOrderID,
		OperatorID:     operatorID,
		SessionID:      sess.ID,
		OrderID:        ids.OrderID,
		OrderNumber:    bundle.Order.OrderNumber,
		InvoiceID:      ids.InvoiceID,
		InvoiceNumber:  bundle.Invoice.InvoiceNumber,
		CustomerName:   cust.Name,
		Lines:          receiptLines(lines),
		Total:          total,
		QRCodeURL:      qrURL,
		State:          AttemptAwaitingPayment,
		StartedAt:      now,
	}
	c.registry.Put(attempt)
	c.observe("awaiting_payment")
	c.logger.Info("qris attempt started",
		slog.String("gateway_order_id", gatewayOrderID),
		slog.Int64("order_id", ids.OrderID),
		slog.Int64("invoice_id", ids.InvoiceID),
		slog.Int64("total", total))
	return &attempt, nil
}

func (c *QRISCoordinator) checkPreconditions(ctx context.Context, operatorID int64, customerID *int64) (*RegisterSession, []CartLine, *customers.Customer, error) {
	sess, err := c.sessions.GetOpenSession(ctx, operatorID)
	if err != nil {
		if errors.Is(err, ErrNoOpenSession) {
			return nil, nil, nil, ErrRegisterClosed
		}
		return nil, nil, nil, err
	}
	if sess == nil || sess.Status != SessionOpen {
		return nil, nil, nil, ErrRegisterClosed
	}

	lines := c.carts.CartFor(operatorID).Lines()
	if len(lines) == 0 {
		return nil, nil, nil, ErrEmptyCart
	}

	var cust *customers.Customer
	if customerID != nil {
		cust, err = c.customers.Get(ctx, *customerID)
	} else {
		cust, err = c.customers.ResolveWalkIn(ctx)
	}
	if err != nil || cust == nil {
		return nil, nil, nil, ErrNoCustomer
	}
	return sess, lines, cust, nil
}

// CheckStatus is the operator poll. It re-reads the invoice; once any writer
// (this poll's settlement observation or the webhook) has flipped it to
// paid, the attempt confirms: the cart clears and a receipt is returned.
// Repeating the call after confirmation returns the same terminal state.
func (c *QRISCoordinator) CheckStatus(ctx context.Context, gatewayOrderID string) (*QRISStatus, error) {
	attempt, ok := c.registry.Get(gatewayOrderID)
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if attempt.State == AttemptConfirmed {
		return &QRISStatus{
			GatewayOrderID: gatewayOrderID,
			State:          AttemptConfirmed,
			Receipt:        attempt.receipt(c.now()),
		}, nil
	}

	v, err, _ := c.poll.Do(gatewayOrderID, func() (any, error) {
		return c.resolveOnce(ctx, gatewayOrderID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*QRISStatus), nil
}

func (c *QRISCoordinator) resolveOnce(ctx context.Context, gatewayOrderID string) (*QRISStatus, error) {
	attempt, ok := c.registry.Get(gatewayOrderID)
	if !ok {
		return nil, ErrAttemptNotFound
	}

	inv, err := c.invoices.GetInvoice(ctx, attempt.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == billing.InvoiceStatusCancelled {
		// The expiry sweep got here first.
		c.registry.SetState(gatewayOrderID, AttemptFailed)
		return &QRISStatus{GatewayOrderID: gatewayOrderID, State: AttemptFailed}, nil
	}
	if inv.Status != billing.InvoiceStatusPaid {
		return &QRISStatus{
			GatewayOrderID: gatewayOrderID,
			State:          AttemptAwaitingPayment,
			QRCodeURL:      attempt.QRCodeURL,
		}, nil
	}

	// Settled. Confirm the attempt: clear the cart and build the success
	// summary. The entry stays in the registry in its terminal state so a
	// repeated poll answers the same way; the sweep reaps it later.
	c.registry.SetState(gatewayOrderID, AttemptConfirmed)
	c.carts.CartFor(attempt.OperatorID).Clear()
	c.observe("confirmed")
	c.logger.Info("qris attempt confirmed",
		slog.String("gateway_order_id", gatewayOrderID),
		slog.Int64("invoice_id", inv.ID))

	return &QRISStatus{
		GatewayOrderID: gatewayOrderID,
		State:          AttemptConfirmed,
		Receipt:        attempt.receipt(c.now()),
	}, nil
}

// Cancel voids an awaiting attempt. The pending invoice delete and order
// cancel are best effort; the cart is preserved since no payment happened.
func (c *QRISCoordinator) Cancel(ctx context.Context, gatewayOrderID string) error {
	attempt, ok := c.registry.Get(gatewayOrderID)
	if !ok {
		return ErrAttemptNotFound
	}
	if attempt.State != AttemptAwaitingPayment {
		return fmt.Errorf("pos: attempt %s is %s, not cancellable", gatewayOrderID, attempt.State)
	}

	if err := c.invoices.DeleteInvoice(ctx, attempt.InvoiceID); err != nil {
		c.logger.Warn("pending invoice delete failed",
			slog.String("gateway_order_id", gatewayOrderID),
			slog.Int64("invoice_id", attempt.InvoiceID),
			slog.Any("error", err))
	}
	if c.orders != nil {
		if err := c.orders.UpdateStatus(ctx, attempt.OrderID, orders.OrderStatusCancelled); err != nil {
			c.logger.Warn("pending order cancel failed",
				slog.Int64("order_id", attempt.OrderID),
				slog.Any("error", err))
		}
	}

	c.registry.SetState(gatewayOrderID, AttemptCancelled)
	c.observe("cancelled")
	c.logger.Info("qris attempt cancelled", slog.String("gateway_order_id", gatewayOrderID))
	return nil
}

func (c *QRISCoordinator) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveCheckout(string(billing.MethodQRIS), outcome)
	}
}

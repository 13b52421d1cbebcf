package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/shared"
)

// ErrBadSignature indicates a notification that failed verification.
var ErrBadSignature = errors.New("billing: webhook signature mismatch")

// Reconciliation outcomes, also used as metric labels.
const (
	OutcomeSettled      = "settled"
	OutcomeDuplicate    = "duplicate"
	OutcomeIgnored      = "ignored"
	OutcomeUnknownOrder = "unknown_order"
)

// ReconcilerStore is the invoice access the reconciler needs.
type ReconcilerStore interface {
	GetInvoiceByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Invoice, error)
	SettleInvoice(ctx context.Context, invoiceID int64, gatewayTransactionID string, p Payment) (bool, error)
}

// SessionResolver maps a live checkout attempt back to the register session
// that started it, so the settled payment lands in the right cash session.
type SessionResolver interface {
	SessionForGatewayOrder(gatewayOrderID string) (int64, bool)
}

// Auditor records reconciliation decisions for later replay.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Reconciler applies gateway payment notifications to invoices. It is the
// webhook-side half of the QRIS confirmation race; the operator poll is the
// other half. Both funnel into the same compare-and-set.
type Reconciler struct {
	store     ReconcilerStore
	sessions  SessionResolver
	auditor   Auditor
	serverKey string
	logger    *slog.Logger
}

func NewReconciler(store ReconcilerStore, sessions SessionResolver, auditor Auditor, serverKey string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:     store,
		sessions:  sessions,
		auditor:   auditor,
		serverKey: serverKey,
		logger:    logger,
	}
}

// Process verifies and applies one notification. The returned outcome is one
// of the Outcome constants; ErrBadSignature means the caller must reject with
// 403 and change nothing. Any other error is an internal failure the gateway
// should retry.
func (r *Reconciler) Process(ctx context.Context, n gateway.Notification, rawPayload map[string]any) (string, error) {
	if !n.Verify(r.serverKey) {
		r.logger.Warn("webhook signature mismatch", slog.String("gateway_order_id", n.OrderID))
		return "", ErrBadSignature
	}

	if !n.IsSuccessful() {
		// Acknowledged so the gateway stops retrying; nothing to apply.
		r.audit(ctx, "gateway.webhook.ignored", n.OrderID, rawPayload)
		return OutcomeIgnored, nil
	}

	inv, err := r.store.GetInvoiceByGatewayOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Acknowledge anyway to stop retry storms, but keep the trace.
			r.logger.Warn("webhook for unknown gateway order",
				slog.String("gateway_order_id", n.OrderID),
				slog.String("transaction_id", n.TransactionID))
			r.audit(ctx, "gateway.webhook.unknown_order", n.OrderID, rawPayload)
			return OutcomeUnknownOrder, nil
		}
		return "", err
	}

	var sessionID *int64
	if r.sessions != nil {
		if id, ok := r.sessions.SessionForGatewayOrder(n.OrderID); ok {
			sessionID = &id
		}
	}

	applied, err := r.store.SettleInvoice(ctx, inv.ID, n.TransactionID, Payment{
		OrderID:         inv.OrderID,
		InvoiceID:       inv.ID,
		SessionID:       sessionID,
		PaymentDate:     time.Now(),
		Amount:          inv.TotalAmount,
		Method:          MethodQRIS,
		PaymentType:     TypeFullPayment,
		ReferenceNumber: n.TransactionID,
	})
	if err != nil {
		return "", err
	}
	if !applied {
		// The poll path or an earlier delivery already settled it.
		r.audit(ctx, "gateway.webhook.duplicate", n.OrderID, rawPayload)
		return OutcomeDuplicate, nil
	}

	r.logger.Info("invoice settled via webhook",
		slog.Int64("invoice_id", inv.ID),
		slog.String("gateway_order_id", n.OrderID),
		slog.String("transaction_id", n.TransactionID))
	r.audit(ctx, "gateway.webhook.settled", n.OrderID, rawPayload)
	return OutcomeSettled, nil
}

func (r *Reconciler) audit(ctx context.Context, action, gatewayOrderID string, payload map[string]any) {
	if r.auditor == nil {
		return
	}
	err := r.auditor.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "invoice",
		EntityID: gatewayOrderID,
		Meta:     payload,
	})
	if err != nil {
		r.logger.Warn("webhook audit write failed", slog.Any("error", err))
	}
}

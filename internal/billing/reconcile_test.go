package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/shared"
)

const testServerKey = "server-secret"

type memoryReconcilerStore struct {
	invoices map[string]*Invoice
	payments []Payment
}

func newMemoryReconcilerStore() *memoryReconcilerStore {
	return &memoryReconcilerStore{invoices: make(map[string]*Invoice)}
}

func (s *memoryReconcilerStore) addPending(gatewayOrderID string, total int64) *Invoice {
	id := int64(len(s.invoices) + 1)
	inv := &Invoice{
		ID:             id,
		InvoiceNumber:  "INV-TEST",
		OrderID:        id,
		TotalAmount:    total,
		Status:         InvoiceStatusSent,
		GatewayOrderID: &gatewayOrderID,
	}
	s.invoices[gatewayOrderID] = inv
	return inv
}

func (s *memoryReconcilerStore) GetInvoiceByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Invoice, error) {
	inv, ok := s.invoices[gatewayOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *memoryReconcilerStore) SettleInvoice(ctx context.Context, invoiceID int64, gatewayTransactionID string, p Payment) (bool, error) {
	for _, inv := range s.invoices {
		if inv.ID != invoiceID {
			continue
		}
		if inv.Status == InvoiceStatusPaid || inv.Status == InvoiceStatusCancelled {
			return false, nil
		}
		inv.Status = InvoiceStatusPaid
		inv.GatewayTransactionID = &gatewayTransactionID
		s.payments = append(s.payments, p)
		return true, nil
	}
	return false, ErrNotFound
}

type memoryAuditor struct {
	entries []shared.AuditLog
}

func (a *memoryAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func signedNotification(orderID, status, fraud, amount, txnID string) gateway.Notification {
	n := gateway.Notification{
		TransactionStatus: status,
		TransactionID:     txnID,
		StatusCode:        "200",
		OrderID:           orderID,
		GrossAmount:       amount,
		FraudStatus:       fraud,
		TransactionTime:   time.Now().Format("2006-01-02 15:04:05"),
	}
	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestWebhookSettlesPendingInvoice(t *testing.T) {
	store := newMemoryReconcilerStore()
	auditor := &memoryAuditor{}
	inv := store.addPending("POS-20240101-abc", 85000)
	rec := NewReconciler(store, nil, auditor, testServerKey, nil)

	outcome, err := rec.Process(context.Background(), signedNotification("POS-20240101-abc", "settlement", "", "85000.00", "tx-9"), nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSettled, outcome)

	require.Equal(t, InvoiceStatusPaid, store.invoices["POS-20240101-abc"].Status)
	require.Equal(t, "tx-9", *store.invoices["POS-20240101-abc"].GatewayTransactionID)
	require.Len(t, store.payments, 1)
	require.Equal(t, inv.TotalAmount, store.payments[0].Amount)
	require.Equal(t, MethodQRIS, store.payments[0].Method)
	require.Equal(t, TypeFullPayment, store.payments[0].PaymentType)
}

func TestWebhookDeliveredTwiceIsIdempotent(t *testing.T) {
	store := newMemoryReconcilerStore()
	store.addPending("POS-dup", 50000)
	rec := NewReconciler(store, nil, &memoryAuditor{}, testServerKey, nil)
	n := signedNotification("POS-dup", "settlement", "accept", "50000.00", "tx-1")

	first, err := rec.Process(context.Background(), n, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSettled, first)

	second, err := rec.Process(context.Background(), n, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, second)

	require.Len(t, store.payments, 1, "duplicate delivery must not add a payment")
	require.Equal(t, InvoiceStatusPaid, store.invoices["POS-dup"].Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := newMemoryReconcilerStore()
	store.addPending("POS-sig", 10000)
	rec := NewReconciler(store, nil, &memoryAuditor{}, testServerKey, nil)

	n := signedNotification("POS-sig", "settlement", "", "10000.00", "tx-2")
	n.SignatureKey = gateway.Signature("POS-sig", "201", "10000.00", testServerKey) // wrong status code

	_, err := rec.Process(context.Background(), n, nil)
	require.ErrorIs(t, err, ErrBadSignature)
	require.Equal(t, InvoiceStatusSent, store.invoices["POS-sig"].Status, "no mutation on rejected signature")
	require.Empty(t, store.payments)
}

func TestWebhookIgnoresNonSuccessStatuses(t *testing.T) {
	store := newMemoryReconcilerStore()
	store.addPending("POS-pend", 10000)
	auditor := &memoryAuditor{}
	rec := NewReconciler(store, nil, auditor, testServerKey, nil)

	for _, status := range []string{"pending", "deny", "expire", "cancel"} {
		outcome, err := rec.Process(context.Background(), signedNotification("POS-pend", status, "", "10000.00", "tx-3"), nil)
		require.NoError(t, err)
		require.Equal(t, OutcomeIgnored, outcome)
	}
	require.Equal(t, InvoiceStatusSent, store.invoices["POS-pend"].Status)
	require.Empty(t, store.payments)
}

func TestWebhookUnknownOrderAcknowledged(t *testing.T) {
	store := newMemoryReconcilerStore()
	auditor := &memoryAuditor{}
	rec := NewReconciler(store, nil, auditor, testServerKey, nil)

	outcome, err := rec.Process(context.Background(), signedNotification("POS-nope", "settlement", "", "10.00", "tx-4"), nil)
	require.NoError(t, err, "unknown orders are acknowledged, not errored")
	require.Equal(t, OutcomeUnknownOrder, outcome)
	require.Len(t, auditor.entries, 1)
	require.Equal(t, "gateway.webhook.unknown_order", auditor.entries[0].Action)
}

type staticSessions struct{ id int64 }

func (s staticSessions) SessionForGatewayOrder(string) (int64, bool) { return s.id, true }

func TestWebhookAttachesRegisterSession(t *testing.T) {
	store := newMemoryReconcilerStore()
	store.addPending("POS-sess", 25000)
	rec := NewReconciler(store, staticSessions{id: 7}, &memoryAuditor{}, testServerKey, nil)

	_, err := rec.Process(context.Background(), signedNotification("POS-sess", "capture", "accept", "25000.00", "tx-5"), nil)
	require.NoError(t, err)
	require.NotNil(t, store.payments[0].SessionID)
	require.Equal(t, int64(7), *store.payments[0].SessionID)
}

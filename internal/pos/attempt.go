package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
)

// ErrAttemptNotFound indicates an unknown or already-resolved attempt.
var ErrAttemptNotFound = errors.New("pos: checkout attempt not found")

// AttemptState is the lifecycle of one QRIS checkout attempt.
type AttemptState string

const (
	AttemptInit            AttemptState = "init"
	AttemptChargeRequested AttemptState = "charge_requested"
	AttemptAwaitingPayment AttemptState = "awaiting_payment"
	AttemptConfirmed       AttemptState = "confirmed"
	AttemptCancelled       AttemptState = "cancelled"
	AttemptFailed          AttemptState = "failed"
)

// Attempt is the live context of one pending QRIS sale. The poll handler and
// the webhook reconciler both resolve through the registry so they see the
// attempt's current state, never a stale snapshot captured when the charge
// started.
type Attempt struct {
	GatewayOrderID string        `json:"gateway_order_id"`
	OperatorID     int64         `json:"operator_id"`
	SessionID      int64         `json:"session_id"`
	OrderID        int64         `json:"order_id"`
	OrderNumber    string        `json:"order_number"`
	InvoiceID      int64         `json:"invoice_id"`
	InvoiceNumber  string        `json:"invoice_number"`
	CustomerName   string        `json:"customer_name"`
	Lines          []ReceiptLine `json:"lines"`
	Total          int64         `json:"total"`
	QRCodeURL      string        `json:"qr_code_url"`
	State          AttemptState  `json:"state"`
	StartedAt      time.Time     `json:"started_at"`
}

// receipt builds the success summary from the attempt's materialized
// snapshot.
func (a Attempt) receipt(issuedAt time.Time) *Receipt {
	return &Receipt{
		OrderID:       a.OrderID,
		OrderNumber:   a.OrderNumber,
		InvoiceNumber: a.InvoiceNumber,
		IssuedAt:      issuedAt,
		CustomerName:  a.CustomerName,
		Method:        billing.MethodQRIS,
		Lines:         a.Lines,
		Total:         a.Total,
	}
}

// AttemptRegistry tracks pending QRIS attempts keyed by gateway order id. It
// also implements billing.SessionResolver so a webhook settlement can credit
// the payment to the register session that started the attempt.
type AttemptRegistry struct {
	mu       sync.RWMutex
	attempts map[string]*Attempt
}

func NewAttemptRegistry() *AttemptRegistry {
	return &AttemptRegistry{attempts: make(map[string]*Attempt)}
}

// Put registers or replaces an attempt.
func (r *AttemptRegistry) Put(a Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := a
	r.attempts[a.GatewayOrderID] = &cp
}

// Get returns a copy of the attempt.
func (r *AttemptRegistry) Get(gatewayOrderID string) (Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[gatewayOrderID]
	if !ok {
		return Attempt{}, false
	}
	return *a, true
}

// SetState moves an attempt to a new state.
func (r *AttemptRegistry) SetState(gatewayOrderID string, state AttemptState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[gatewayOrderID]
	if !ok {
		return false
	}
	a.State = state
	return true
}

// Remove drops a resolved attempt.
func (r *AttemptRegistry) Remove(gatewayOrderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, gatewayOrderID)
}

// SessionForGatewayOrder implements billing.SessionResolver.
func (r *AttemptRegistry) SessionForGatewayOrder(gatewayOrderID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[gatewayOrderID]
	if !ok || a.SessionID == 0 {
		return 0, false
	}
	return a.SessionID, true
}

// RunSweeper reaps attempts older than ttl at the given interval until the
// context is cancelled. The API process owns the registry and runs this in a
// goroutine alongside the HTTP server; cancelling the persisted invoices is
// the background worker's job.
func (r *AttemptRegistry) RunSweeper(ctx context.Context, ttl, every time.Duration) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.SweepOlderThan(now.Add(-ttl))
		}
	}
}

// SweepOlderThan drops attempts started before the cutoff. Attempts still in
// awaiting_payment are returned so the expiry job can cancel their invoices;
// terminal attempts are simply reaped.
func (r *AttemptRegistry) SweepOlderThan(cutoff time.Time) []Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []Attempt
	for key, a := range r.attempts {
		if !a.StartedAt.Before(cutoff) {
			continue
		}
		if a.State == AttemptAwaitingPayment {
			expired = append(expired, *a)
		}
		delete(r.attempts, key)
	}
	return expired
}

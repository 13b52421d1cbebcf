package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	jobmetrics "github.com/Createch-Studio/KateringPro-sub000/internal/jobs"
	"github.com/Createch-Studio/KateringPro-sub000/internal/pos"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

// StaleInvoiceStore lists and cancels abandoned pending invoices.
type StaleInvoiceStore interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]billing.Invoice, error)
	CancelInvoice(ctx context.Context, id int64) (bool, error)
}

// OrderVoider cancels the order behind an expired invoice.
type OrderVoider interface {
	UpdateStatus(ctx context.Context, id int64, status orders.OrderStatus) error
}

// QRISExpireSweepJob cancels QRIS attempts that sat in awaiting_payment past
// the TTL. Operators never see them fail; the next poll or cancel simply
// finds the attempt gone and the invoice cancelled.
type QRISExpireSweepJob struct {
	Invoices StaleInvoiceStore
	Orders   OrderVoider
	Registry *pos.AttemptRegistry
	TTL      time.Duration
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewQRISExpireSweepJob initialises the sweep handler.
func NewQRISExpireSweepJob(invoices StaleInvoiceStore, orderStore OrderVoider, registry *pos.AttemptRegistry, ttl time.Duration, logger *slog.Logger) *QRISExpireSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &QRISExpireSweepJob{
		Invoices: invoices,
		Orders:   orderStore,
		Registry: registry,
		TTL:      ttl,
		Logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep.
func (j *QRISExpireSweepJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("qris expire sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskQRISExpireSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	var payload QRISExpireSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ttl := j.TTL
	if payload.TTLMinutes > 0 {
		ttl = time.Duration(payload.TTLMinutes) * time.Minute
	}
	cutoff := j.clock().Add(-ttl)

	stale, err := j.Invoices.ListStalePending(ctx, cutoff)
	if err != nil {
		return err
	}

	cancelled := 0
	for _, inv := range stale {
		applied, err := j.Invoices.CancelInvoice(ctx, inv.ID)
		if err != nil {
			j.Logger.Warn("stale invoice cancel failed",
				slog.Int64("invoice_id", inv.ID),
				slog.Any("error", err))
			continue
		}
		if !applied {
			// Paid or cancelled between the list and now; leave it alone.
			continue
		}
		cancelled++
		if err := j.Orders.UpdateStatus(ctx, inv.OrderID, orders.OrderStatusCancelled); err != nil {
			j.Logger.Warn("stale order cancel failed",
				slog.Int64("order_id", inv.OrderID),
				slog.Any("error", err))
		}
	}

	if j.Registry != nil {
		j.Registry.SweepOlderThan(cutoff)
	}
	j.Metrics.AddReaped(TaskQRISExpireSweep, "invoices", cancelled)

	if len(stale) > 0 {
		j.Logger.Info("qris expire sweep finished",
			slog.Int("stale", len(stale)),
			slog.Int("cancelled", cancelled),
			slog.Duration("ttl", ttl))
	}
	return nil
}

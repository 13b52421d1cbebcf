package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/pos"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

type fakeStaleStore struct {
	stale      []billing.Invoice
	cancelled  []int64
	settledIDs map[int64]bool
}

func (f *fakeStaleStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]billing.Invoice, error) {
	return f.stale, nil
}

func (f *fakeStaleStore) CancelInvoice(ctx context.Context, id int64) (bool, error) {
	if f.settledIDs[id] {
		return false, nil
	}
	f.cancelled = append(f.cancelled, id)
	return true, nil
}

type fakeVoider struct {
	voided []int64
}

func (f *fakeVoider) UpdateStatus(ctx context.Context, id int64, status orders.OrderStatus) error {
	if status == orders.OrderStatusCancelled {
		f.voided = append(f.voided, id)
	}
	return nil
}

func sweepTask(t *testing.T, payload QRISExpireSweepPayload) *asynq.Task {
	t.Helper()
	task, err := NewQRISExpireSweepTask(payload)
	require.NoError(t, err)
	return task
}

func TestQRISExpireSweepCancelsStaleInvoices(t *testing.T) {
	store := &fakeStaleStore{
		stale: []billing.Invoice{
			{ID: 1, OrderID: 11, Status: billing.InvoiceStatusSent},
			{ID: 2, OrderID: 12, Status: billing.InvoiceStatusSent},
		},
	}
	voider := &fakeVoider{}
	registry := pos.NewAttemptRegistry()
	registry.Put(pos.Attempt{
		GatewayOrderID: "POS-old",
		State:          pos.AttemptAwaitingPayment,
		StartedAt:      time.Now().Add(-2 * time.Hour),
	})

	job := NewQRISExpireSweepJob(store, voider, registry, 30*time.Minute, nil)
	require.NoError(t, job.Handle(context.Background(), sweepTask(t, QRISExpireSweepPayload{})))

	require.Equal(t, []int64{1, 2}, store.cancelled)
	require.Equal(t, []int64{11, 12}, voider.voided)

	_, ok := registry.Get("POS-old")
	require.False(t, ok, "expired attempt swept from the registry")
}

func TestQRISExpireSweepSkipsAlreadySettled(t *testing.T) {
	store := &fakeStaleStore{
		stale:      []billing.Invoice{{ID: 3, OrderID: 13, Status: billing.InvoiceStatusSent}},
		settledIDs: map[int64]bool{3: true},
	}
	voider := &fakeVoider{}

	job := NewQRISExpireSweepJob(store, voider, nil, 30*time.Minute, nil)
	require.NoError(t, job.Handle(context.Background(), sweepTask(t, QRISExpireSweepPayload{})))

	require.Empty(t, store.cancelled)
	require.Empty(t, voider.voided, "a settle that won the race leaves the order alone")
}

func TestQRISExpireSweepRejectsBadPayload(t *testing.T) {
	job := NewQRISExpireSweepJob(&fakeStaleStore{}, &fakeVoider{}, nil, time.Minute, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskQRISExpireSweep, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

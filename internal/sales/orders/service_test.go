package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryOrderRepo struct {
	orders map[int64]*Order
	nextID int64
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[int64]*Order)}
}

func (r *memoryOrderRepo) add(status OrderStatus) int64 {
	r.nextID++
	r.orders[r.nextID] = &Order{
		ID:          r.nextID,
		OrderNumber: "ORD-TEST",
		CustomerID:  1,
		OrderDate:   time.Now(),
		Status:      status,
	}
	return r.nextID
}

func (r *memoryOrderRepo) Get(ctx context.Context, id int64) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memoryOrderRepo) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *memoryOrderRepo) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func TestConfirmOnlyFromDraft(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id := repo.add(OrderStatusDraft)
	order, err := svc.Confirm(ctx, id)
	require.NoError(t, err)
	require.Equal(t, OrderStatusConfirmed, order.Status)

	_, err = svc.Confirm(ctx, id)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCompleteOnlyFromConfirmed(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id := repo.add(OrderStatusConfirmed)
	order, err := svc.Complete(ctx, id)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, order.Status)

	draft := repo.add(OrderStatusDraft)
	_, err = svc.Complete(ctx, draft)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelFinalOrdersRejected(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id := repo.add(OrderStatusConfirmed)
	order, err := svc.Cancel(ctx, id)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, order.Status)

	_, err = svc.Cancel(ctx, id)
	require.ErrorIs(t, err, ErrInvalidStatus)

	done := repo.add(OrderStatusCompleted)
	_, err = svc.Cancel(ctx, done)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

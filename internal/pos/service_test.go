package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Createch-Studio/KateringPro-sub000/internal/billing"
	"github.com/Createch-Studio/KateringPro-sub000/internal/gateway"
	"github.com/Createch-Studio/KateringPro-sub000/internal/masterdata/customers"
	"github.com/Createch-Studio/KateringPro-sub000/internal/sales/orders"
)

type fakeSessionGate struct {
	session *RegisterSession
}

func (f *fakeSessionGate) GetOpenSession(ctx context.Context, operatorID int64) (*RegisterSession, error) {
	if f.session == nil || f.session.OperatorID != operatorID {
		return nil, ErrNoOpenSession
	}
	return f.session, nil
}

type fakeSaleStore struct {
	bundles []SaleBundle
	nextID  int64
	failErr error
}

func (f *fakeSaleStore) CreateSaleBundle(ctx context.Context, bundle SaleBundle) (SaleIDs, error) {
	if f.failErr != nil {
		return SaleIDs{}, f.failErr
	}
	f.nextID++
	f.bundles = append(f.bundles, bundle)
	ids := SaleIDs{OrderID: f.nextID, InvoiceID: f.nextID}
	if bundle.Payment != nil {
		ids.PaymentID = f.nextID
	}
	return ids, nil
}

type fakeCustomers struct {
	walkIn *customers.Customer
}

func (f *fakeCustomers) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	if f.walkIn != nil && f.walkIn.ID == id {
		return f.walkIn, nil
	}
	return nil, errors.New("customer not found")
}

func (f *fakeCustomers) ResolveWalkIn(ctx context.Context) (*customers.Customer, error) {
	if f.walkIn == nil {
		return nil, errors.New("walk-in customer missing")
	}
	return f.walkIn, nil
}

type fakeInvoiceStore struct {
	invoices map[int64]*billing.Invoice
	deleted  []int64
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{invoices: make(map[int64]*billing.Invoice)}
}

func (f *fakeInvoiceStore) GetInvoice(ctx context.Context, id int64) (*billing.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, billing.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceStore) DeleteInvoice(ctx context.Context, id int64) error {
	if _, ok := f.invoices[id]; !ok {
		return billing.ErrNotFound
	}
	delete(f.invoices, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCharger struct {
	lastReq gateway.ChargeRequest
	err     error
	actions []gateway.Action
}

func (f *fakeCharger) ChargeQRIS(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	actions := f.actions
	if actions == nil {
		actions = []gateway.Action{{Name: "generate-qr-code-v2", URL: "https://gw.example/qr/v2"}}
	}
	return &gateway.ChargeResponse{
		TransactionID: "tx-abc",
		OrderID:       req.OrderID,
		Actions:       actions,
	}, nil
}

type fakeOrderStatus struct {
	statuses map[int64]orders.OrderStatus
}

func (f *fakeOrderStatus) UpdateStatus(ctx context.Context, id int64, status orders.OrderStatus) error {
	if f.statuses == nil {
		f.statuses = make(map[int64]orders.OrderStatus)
	}
	f.statuses[id] = status
	return nil
}

func walkInCustomer() *customers.Customer {
	return &customers.Customer{ID: 10, Name: "PoS Customer", IsWalkIn: true, IsActive: true}
}

func openSession(operatorID int64) *RegisterSession {
	return &RegisterSession{ID: 5, OperatorID: operatorID, OpenedAt: time.Now(), OpeningBalance: 100000, Status: SessionOpen}
}

func fillCart(carts *CartStore, operatorID int64) {
	cart := carts.CartFor(operatorID)
	for i := 0; i < 3; i++ {
		cart.AddItem(riceBox())
	}
	cart.AddItem(iceTea())
	cart.AddItem(iceTea())
}

func TestCheckoutFailsWhenRegisterClosed(t *testing.T) {
	carts := NewCartStore()
	fillCart(carts, 1)
	sales := &fakeSaleStore{}
	svc := NewCheckoutService(carts, &fakeSessionGate{}, sales, &fakeCustomers{walkIn: walkInCustomer()}, nil, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodCash})
	require.ErrorIs(t, err, ErrRegisterClosed)
	require.Empty(t, sales.bundles, "no records may be written behind a closed register")
	require.Equal(t, 2, carts.CartFor(1).Len(), "cart must survive a failed submission")
}

func TestCheckoutFailsOnEmptyCart(t *testing.T) {
	carts := NewCartStore()
	sales := &fakeSaleStore{}
	svc := NewCheckoutService(carts, &fakeSessionGate{session: openSession(1)}, sales, &fakeCustomers{walkIn: walkInCustomer()}, nil, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodCash})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Empty(t, sales.bundles)
}

func TestCheckoutFailsWithoutCustomer(t *testing.T) {
	carts := NewCartStore()
	fillCart(carts, 1)
	sales := &fakeSaleStore{}
	svc := NewCheckoutService(carts, &fakeSessionGate{session: openSession(1)}, sales, &fakeCustomers{}, nil, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodCash})
	require.ErrorIs(t, err, ErrNoCustomer)
	require.Empty(t, sales.bundles)
}

func TestCashCheckoutHappyPath(t *testing.T) {
	carts := NewCartStore()
	fillCart(carts, 1)
	sales := &fakeSaleStore{}
	svc := NewCheckoutService(carts, &fakeSessionGate{session: openSession(1)}, sales, &fakeCustomers{walkIn: walkInCustomer()}, nil, nil, nil)

	receipt, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodCash})
	require.NoError(t, err)

	// 3 x 25000 + 2 x 5000 = 85000
	require.Equal(t, int64(85000), receipt.Total)
	require.Equal(t, "PoS Customer", receipt.CustomerName)
	require.Len(t, receipt.Lines, 2)

	require.Len(t, sales.bundles, 1)
	bundle := sales.bundles[0]
	require.Equal(t, orders.OrderStatusCompleted, bundle.Order.Status)
	require.Equal(t, int64(85000), bundle.Order.Total)
	require.Zero(t, bundle.Order.Tax)
	require.Len(t, bundle.Items, 2)
	require.Equal(t, billing.InvoiceStatusPaid, bundle.Invoice.Status)
	require.Equal(t, int64(85000), bundle.Invoice.TotalAmount)
	require.NotNil(t, bundle.Payment)
	require.Equal(t, int64(85000), bundle.Payment.Amount)
	require.Equal(t, billing.MethodCash, bundle.Payment.Method)
	require.Equal(t, int64(5), *bundle.Payment.SessionID)

	require.Zero(t, carts.CartFor(1).Len(), "cart clears after a finalized sale")
}

func TestCheckoutRejectsQRISMethod(t *testing.T) {
	svc := NewCheckoutService(NewCartStore(), &fakeSessionGate{session: openSession(1)}, &fakeSaleStore{}, &fakeCustomers{walkIn: walkInCustomer()}, nil, nil, nil)
	_, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodQRIS})
	require.ErrorIs(t, err, ErrInvalidMethod)
}

func TestCheckoutKeepsCartOnWriteFailure(t *testing.T) {
	carts := NewCartStore()
	fillCart(carts, 1)
	sales := &fakeSaleStore{failErr: errors.New("db down")}
	svc := NewCheckoutService(carts, &fakeSessionGate{session: openSession(1)}, sales, &fakeCustomers{walkIn: walkInCustomer()}, nil, nil, nil)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{OperatorID: 1, Method: billing.MethodCash})
	require.Error(t, err)
	require.Equal(t, 2, carts.CartFor(1).Len())
}

func newQRISFixture(t *testing.T) (*QRISCoordinator, *CartStore, *fakeSaleStore, *fakeInvoiceStore, *fakeCharger, *AttemptRegistry) {
	t.Helper()
	carts := NewCartStore()
	fillCart(carts, 1)
	sales := &fakeSaleStore{}
	invoices := newFakeInvoiceStore()
	charger := &fakeCharger{}
	registry := NewAttemptRegistry()
	coord := NewQRISCoordinator(
		carts,
		&fakeSessionGate{session: openSession(1)},
		sales,
		&fakeCustomers{walkIn: walkInCustomer()},
		invoices,
		&fakeOrderStatus{},
		charger,
		registry,
		nil,
		nil,
	)
	return coord, carts, sales, invoices, charger, registry
}

func TestQRISStartCreatesPendingSale(t *testing.T) {
	coord, carts, sales, invoices, charger, registry := newQRISFixture(t)

	attempt, err := coord.Start(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, AttemptAwaitingPayment, attempt.State)
	require.Equal(t, "https://gw.example/qr/v2", attempt.QRCodeURL)
	require.Equal(t, int64(85000), attempt.Total)
	require.Equal(t, int64(85000), charger.lastReq.GrossAmount)

	require.Len(t, sales.bundles, 1)
	bundle := sales.bundles[0]
	require.Equal(t, orders.OrderStatusConfirmed, bundle.Order.Status)
	require.Zero(t, bundle.Order.PaidAmount)
	require.Equal(t, billing.InvoiceStatusSent, bundle.Invoice.Status)
	require.Equal(t, attempt.GatewayOrderID, *bundle.Invoice.GatewayOrderID)
	require.Nil(t, bundle.Payment, "no payment before the money arrives")

	require.Equal(t, 2, carts.CartFor(1).Len(), "cart is not cleared while awaiting payment")

	// The registry resolves the session for the webhook reconciler.
	sessID, ok := registry.SessionForGatewayOrder(attempt.GatewayOrderID)
	require.True(t, ok)
	require.Equal(t, int64(5), sessID)

	// Seed the invoice store the way the bundle write would have.
	invoices.invoices[attempt.InvoiceID] = &billing.Invoice{
		ID:             attempt.InvoiceID,
		InvoiceNumber:  bundle.Invoice.InvoiceNumber,
		Status:         billing.InvoiceStatusSent,
		GatewayOrderID: bundle.Invoice.GatewayOrderID,
	}
	status, err := coord.CheckStatus(context.Background(), attempt.GatewayOrderID)
	require.NoError(t, err)
	require.Equal(t, AttemptAwaitingPayment, status.State)
	require.Nil(t, status.Receipt)
}

func TestQRISChargeFailureLeavesNoRecords(t *testing.T) {
	coord, carts, sales, _, charger, _ := newQRISFixture(t)
	charger.err = errors.New("gateway unreachable")

	_, err := coord.Start(context.Background(), 1, nil)
	require.Error(t, err)
	require.Empty(t, sales.bundles)
	require.Equal(t, 2, carts.CartFor(1).Len())
}

func TestQRISMissingQRActionAborts(t *testing.T) {
	coord, _, sales, _, charger, _ := newQRISFixture(t)
	charger.actions = []gateway.Action{{Name: "deeplink-redirect", URL: "https://gw.example/app"}}

	_, err := coord.Start(context.Background(), 1, nil)
	require.ErrorIs(t, err, gateway.ErrNoQRAction)
	require.Empty(t, sales.bundles)
}

func TestQRISPollConfirmsOnceIdempotently(t *testing.T) {
	coord, carts, sales, invoices, _, _ := newQRISFixture(t)

	attempt, err := coord.Start(context.Background(), 1, nil)
	require.NoError(t, err)

	// Webhook (out of band) flipped the invoice to paid.
	invoices.invoices[attempt.InvoiceID] = &billing.Invoice{
		ID:            attempt.InvoiceID,
		InvoiceNumber: sales.bundles[0].Invoice.InvoiceNumber,
		Status:        billing.InvoiceStatusPaid,
	}

	first, err := coord.CheckStatus(context.Background(), attempt.GatewayOrderID)
	require.NoError(t, err)
	require.Equal(t, AttemptConfirmed, first.State)
	require.NotNil(t, first.Receipt)
	require.Equal(t, int64(85000), first.Receipt.Total)
	require.Equal(t, billing.MethodQRIS, first.Receipt.Method)
	require.Len(t, first.Receipt.Lines, 2)
	require.Zero(t, carts.CartFor(1).Len(), "cart clears on confirmation")

	second, err := coord.CheckStatus(context.Background(), attempt.GatewayOrderID)
	require.NoError(t, err)
	require.Equal(t, AttemptConfirmed, second.State, "repeat poll converges to the same terminal state")
	require.Len(t, sales.bundles, 1, "no duplicate order/invoice from the repeat poll")
}

func TestQRISCancelPreservesCart(t *testing.T) {
	coord, carts, sales, invoices, _, registry := newQRISFixture(t)

	attempt, err := coord.Start(context.Background(), 1, nil)
	require.NoError(t, err)
	invoices.invoices[attempt.InvoiceID] = &billing.Invoice{ID: attempt.InvoiceID, Status: billing.InvoiceStatusSent}

	require.NoError(t, coord.Cancel(context.Background(), attempt.GatewayOrderID))
	require.Equal(t, []int64{attempt.InvoiceID}, invoices.deleted, "pending invoice deleted")
	require.Equal(t, 2, carts.CartFor(1).Len(), "cart untouched by cancel")
	require.Len(t, sales.bundles, 1)

	got, ok := registry.Get(attempt.GatewayOrderID)
	require.True(t, ok)
	require.Equal(t, AttemptCancelled, got.State)
}

func TestQRISCancelIsBestEffortOnDeleteFailure(t *testing.T) {
	coord, carts, _, invoices, _, _ := newQRISFixture(t)

	attempt, err := coord.Start(context.Background(), 1, nil)
	require.NoError(t, err)
	// Invoice missing from the store: delete fails, cancel still succeeds.
	require.NoError(t, coord.Cancel(context.Background(), attempt.GatewayOrderID))
	require.Empty(t, invoices.deleted)
	require.Equal(t, 2, carts.CartFor(1).Len())
}

func TestQRISStatusUnknownAttempt(t *testing.T) {
	coord, _, _, _, _, _ := newQRISFixture(t)
	_, err := coord.CheckStatus(context.Background(), "POS-nope")
	require.ErrorIs(t, err, ErrAttemptNotFound)

	require.ErrorIs(t, coord.Cancel(context.Background(), "POS-nope"), ErrAttemptNotFound)
}

func TestAttemptRegistrySweep(t *testing.T) {
	registry := NewAttemptRegistry()
	old := time.Now().Add(-time.Hour)
	registry.Put(Attempt{GatewayOrderID: "stale", State: AttemptAwaitingPayment, StartedAt: old, InvoiceID: 1})
	registry.Put(Attempt{GatewayOrderID: "done", State: AttemptConfirmed, StartedAt: old})
	registry.Put(Attempt{GatewayOrderID: "fresh", State: AttemptAwaitingPayment, StartedAt: time.Now()})

	expired := registry.SweepOlderThan(time.Now().Add(-30 * time.Minute))
	require.Len(t, expired, 1)
	require.Equal(t, "stale", expired[0].GatewayOrderID)

	_, ok := registry.Get("done")
	require.False(t, ok, "terminal attempts are reaped")
	_, ok = registry.Get("fresh")
	require.True(t, ok)
}

func TestAttemptRegistrySweeperLoop(t *testing.T) {
	registry := NewAttemptRegistry()
	registry.Put(Attempt{GatewayOrderID: "done", State: AttemptConfirmed, StartedAt: time.Now().Add(-time.Hour)})
	registry.Put(Attempt{GatewayOrderID: "fresh", State: AttemptAwaitingPayment, StartedAt: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.RunSweeper(ctx, 30*time.Minute, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := registry.Get("done")
		return !ok
	}, time.Second, 5*time.Millisecond, "resolved attempts must not outlive the ttl")

	_, ok := registry.Get("fresh")
	require.True(t, ok)
}

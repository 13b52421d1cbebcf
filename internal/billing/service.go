package billing

import (
	"context"
	"errors"
	"time"
)

// RepositoryPort defines the data access surface the service needs.
type RepositoryPort interface {
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Invoice, error)
	ListInvoices(ctx context.Context, status *InvoiceStatus, limit, offset int) ([]Invoice, error)
	ListPayments(ctx context.Context, sessionID *int64, limit, offset int) ([]Payment, error)
	CreatePayment(ctx context.Context, p Payment) (int64, error)
	SettleInvoice(ctx context.Context, invoiceID int64, gatewayTransactionID string, p Payment) (bool, error)
}

// Service handles invoice and payment business logic.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, status *InvoiceStatus, limit, offset int) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, status, limit, offset)
}

func (s *Service) ListPayments(ctx context.Context, sessionID *int64, limit, offset int) ([]Payment, error) {
	return s.repo.ListPayments(ctx, sessionID, limit, offset)
}

// RegisterPayment records a manually received payment (bank transfer for a
// catering deposit, for example). POS cash and QRIS payments do not pass
// through here.
func (s *Service) RegisterPayment(ctx context.Context, p Payment) (int64, error) {
	if p.InvoiceID == 0 {
		return 0, errors.New("invoice id required")
	}
	if p.OrderID == 0 {
		return 0, errors.New("order id required")
	}
	if p.Amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	if p.Method == "" {
		p.Method = MethodBankTransfer
	}
	if p.PaymentType == "" {
		p.PaymentType = TypeFullPayment
	}
	return s.repo.CreatePayment(ctx, p)
}

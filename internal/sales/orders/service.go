package orders

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStatus = errors.New("orders: invalid status transition")

// RepositoryPort defines the data access surface the service needs.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus) error
}

// Service handles order lifecycle outside the POS checkout: catering desk
// confirmation, completion after the event, cancellation.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Confirm(ctx context.Context, id int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status != OrderStatusDraft {
		return nil, fmt.Errorf("%w: can only confirm draft orders", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, OrderStatusConfirmed); err != nil {
		return nil, fmt.Errorf("confirm order: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Complete(ctx context.Context, id int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status != OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: can only complete confirmed orders", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, OrderStatusCompleted); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status == OrderStatusCancelled || existing.Status == OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order is already final", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, OrderStatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// ListToday is a convenience for the POS dashboard.
func (s *Service) ListToday(ctx context.Context, now time.Time) ([]Order, int, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)
	return s.repo.List(ctx, ListOrdersRequest{DateFrom: &from, DateTo: &to})
}

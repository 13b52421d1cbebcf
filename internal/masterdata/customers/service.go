package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/Createch-Studio/KateringPro-sub000/internal/shared"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	GetWalkIn(ctx context.Context) (*Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]Customer, error)
	Count(ctx context.Context, search string) (int, error)
	Create(ctx context.Context, c Customer) (int64, error)
}

// Service handles customer business logic.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// ResolveWalkIn returns the dedicated POS walk-in customer record.
func (s *Service) ResolveWalkIn(ctx context.Context) (*Customer, error) {
	return s.repo.GetWalkIn(ctx)
}

// List returns one page of active customers plus pagination metadata.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Customer, shared.Pagination, error) {
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}

	total, err := s.repo.Count(ctx, search)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	list, err := s.repo.List(ctx, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) Create(ctx context.Context, c Customer) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return 0, errors.New("customer name required")
	}
	return s.repo.Create(ctx, c)
}

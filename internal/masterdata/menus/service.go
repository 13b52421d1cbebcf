package menus

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for menus.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Menu, error)
	ListActive(ctx context.Context) ([]Menu, error)
	Create(ctx context.Context, m Menu) (int64, error)
	SetPrice(ctx context.Context, id int64, unitPrice int64) error
}

// Service handles menu catalog business logic.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Get(ctx context.Context, id int64) (*Menu, error) {
	return s.repo.Get(ctx, id)
}

// Catalog returns the sellable menu list, served from cache when warm.
func (s *Service) Catalog(ctx context.Context) ([]Menu, error) {
	return s.cache.FetchCatalog(ctx, s.repo.ListActive)
}

func (s *Service) Create(ctx context.Context, m Menu) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return 0, errors.New("menu name required")
	}
	if m.UnitPrice < 0 {
		return 0, errors.New("unit price must not be negative")
	}
	id, err := s.repo.Create(ctx, m)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Service) SetPrice(ctx context.Context, id int64, unitPrice int64) error {
	if unitPrice < 0 {
		return errors.New("unit price must not be negative")
	}
	if err := s.repo.SetPrice(ctx, id, unitPrice); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

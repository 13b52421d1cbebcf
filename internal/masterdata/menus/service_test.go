package menus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryMenuRepo struct {
	menus     map[int64]*Menu
	nextID    int64
	listCalls int
}

func newMemoryMenuRepo() *memoryMenuRepo {
	return &memoryMenuRepo{menus: make(map[int64]*Menu)}
}

func (r *memoryMenuRepo) Get(ctx context.Context, id int64) (*Menu, error) {
	m, ok := r.menus[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (r *memoryMenuRepo) ListActive(ctx context.Context) ([]Menu, error) {
	r.listCalls++
	var out []Menu
	for _, m := range r.menus {
		if m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memoryMenuRepo) Create(ctx context.Context, m Menu) (int64, error) {
	r.nextID++
	m.ID = r.nextID
	m.IsActive = true
	r.menus[m.ID] = &m
	return m.ID, nil
}

func (r *memoryMenuRepo) SetPrice(ctx context.Context, id int64, unitPrice int64) error {
	m, ok := r.menus[id]
	if !ok {
		return ErrNotFound
	}
	m.UnitPrice = unitPrice
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryMenuRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryMenuRepo()
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestCatalogServedFromCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Menu{Name: "Rice Box", Category: "Paket", UnitPrice: 25000})
	require.NoError(t, err)

	first, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.listCalls, "second read should hit the cache")
}

func TestPriceChangeBumpsCatalogVersion(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, Menu{Name: "Tea", Category: "Minuman", UnitPrice: 5000})
	require.NoError(t, err)

	_, err = svc.Catalog(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.SetPrice(ctx, id, 6000))

	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(6000), catalog[0].UnitPrice)
	require.Equal(t, 2, repo.listCalls, "bump should force a reload")
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), Menu{Name: "  ", UnitPrice: 1000})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Menu{Name: "Nasi", UnitPrice: -1})
	require.Error(t, err)
}

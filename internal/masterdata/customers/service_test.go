package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	customers  []Customer
	lastLimit  int
	lastOffset int
	created    []Customer
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			return &f.customers[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) GetWalkIn(context.Context) (*Customer, error) {
	for i := range f.customers {
		if f.customers[i].IsWalkIn {
			return &f.customers[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, _ string, limit, offset int) ([]Customer, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.customers, nil
}

func (f *fakeRepo) Count(context.Context, string) (int, error) {
	return 45, nil
}

func (f *fakeRepo) Create(_ context.Context, c Customer) (int64, error) {
	f.created = append(f.created, c)
	return int64(len(f.created)), nil
}

func TestListPaginates(t *testing.T) {
	repo := &fakeRepo{customers: []Customer{{ID: 1, Name: "Warung Bu Sri"}}}
	svc := NewService(repo)

	list, meta, err := svc.List(context.Background(), "", 3, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 20, repo.lastLimit)
	require.Equal(t, 40, repo.lastOffset)
	require.Equal(t, 3, meta.Page)
	require.Equal(t, 45, meta.Total)
	require.Equal(t, 3, meta.TotalPages)
}

func TestListDefaultsPage(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	_, meta, err := svc.List(context.Background(), "sri", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, 50, meta.PerPage)
	require.Equal(t, 0, repo.lastOffset)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.Create(context.Background(), Customer{Name: "   "})
	require.Error(t, err)

	id, err := svc.Create(context.Background(), Customer{Name: "  Ibu Ratna "})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
}

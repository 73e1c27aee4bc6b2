package repositories_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewGORMProductRepository(testutil.NewDB(t))

	product := &models.Product{Name: "Keyboard", Price: 75, Stock: 25}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEmpty(t, product.ID)

	fetched, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", fetched.Name)

	fetched.Price = 80
	fetched.Stock = 0
	require.NoError(t, repo.Update(ctx, fetched))

	updated, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, updated.Price)
	assert.Equal(t, 0, updated.Stock)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)

	assert.ErrorIs(t, repo.Update(ctx, &models.Product{ID: "missing", Name: "Nope", Price: 1}), apperr.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), apperr.ErrProductNotFound)
}

func TestGORMProductRepository_TryDecrementStock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	testutil.SeedProducts(t, db, models.Product{ID: "P101", Name: "Lamp", Price: 20, Stock: 3})
	repo := repositories.NewGORMProductRepository(db)

	ok, err := repo.TryDecrementStock(ctx, "P101", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, testutil.Stock(t, db, "P101"))

	ok, err = repo.TryDecrementStock(ctx, "P101", 2)
	require.NoError(t, err)
	assert.False(t, ok, "must refuse when fewer units remain")
	assert.Equal(t, 1, testutil.Stock(t, db, "P101"), "refused decrement must not touch stock")

	ok, err = repo.TryDecrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.TryDecrementStock(ctx, "P101", 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestGORMProductRepository_TryDecrementStockConcurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	testutil.SeedProducts(t, db, models.Product{ID: "P202", Name: "Mug", Price: 5.5, Stock: 5})
	repo := repositories.NewGORMProductRepository(db)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryDecrementStock(ctx, "P202", 1)
			assert.NoError(t, err)
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted.Load())
	assert.Equal(t, 0, testutil.Stock(t, db, "P202"))
}

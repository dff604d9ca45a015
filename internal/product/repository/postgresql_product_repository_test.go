package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productDomain "github.com/allisson/commerce-saga/internal/product/domain"
	"github.com/allisson/commerce-saga/internal/testutil"
)

func TestNewPostgreSQLProductRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLProductRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLProductRepository{}, repo)
}

func TestPostgreSQLProductRepository_GetByID(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)
	ctx := context.Background()

	productID := testutil.CreateTestProduct(t, db, "postgres", "Widget", 9.99, 100)

	product, err := repo.GetByID(ctx, productID)
	require.NoError(t, err)

	assert.Equal(t, productID, product.ID)
	assert.Equal(t, "Widget", product.Name)
	assert.Equal(t, 9.99, product.Price)
	assert.Equal(t, 100, product.StockQuantity)
}

func TestPostgreSQLProductRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)

	product, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))

	assert.Nil(t, product)
	assert.ErrorIs(t, err, productDomain.ErrProductNotFound)
}

func TestPostgreSQLProductRepository_DecrementStock(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)
	ctx := context.Background()

	productID := testutil.CreateTestProduct(t, db, "postgres", "Widget", 9.99, 10)

	err := repo.DecrementStock(ctx, productID, 3)
	require.NoError(t, err)

	product, err := repo.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 7, product.StockQuantity)
}

func TestPostgreSQLProductRepository_DecrementStock_ToZero(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)
	ctx := context.Background()

	productID := testutil.CreateTestProduct(t, db, "postgres", "Widget", 9.99, 5)

	err := repo.DecrementStock(ctx, productID, 5)
	require.NoError(t, err)

	product, err := repo.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.StockQuantity)
}

func TestPostgreSQLProductRepository_DecrementStock_Insufficient(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)
	ctx := context.Background()

	productID := testutil.CreateTestProduct(t, db, "postgres", "Widget", 9.99, 2)

	err := repo.DecrementStock(ctx, productID, 3)
	assert.ErrorIs(t, err, productDomain.ErrInsufficientStock)

	// Stock untouched after the failed decrement.
	product, getErr := repo.GetByID(ctx, productID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, product.StockQuantity)
}

func TestPostgreSQLProductRepository_DecrementStock_UnknownProduct(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLProductRepository(db)

	err := repo.DecrementStock(context.Background(), uuid.Must(uuid.NewV7()), 1)

	assert.ErrorIs(t, err, productDomain.ErrInsufficientStock)
}

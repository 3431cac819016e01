package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	return NewService(testutil.NewDB(t, &Product{}))
}

func TestCreateProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, &ProductCreateRequest{
		Name:  "  Desk Lamp ",
		Price: decimal.RequireFromString("19.99"),
		Stock: 4,
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Desk Lamp", p.Name)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")), "price %s", got.Price)
	assert.Equal(t, 4, got.Stock)
}

func TestCreateProduct_RejectsNegativeValues(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: "Mug", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = s.CreateProduct(ctx, &ProductCreateRequest{Name: "Mug", Price: decimal.NewFromInt(3), Stock: -2})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = s.CreateProduct(ctx, &ProductCreateRequest{Name: " ", Price: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetProducts_NewestFirst(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: name, Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	products, err := s.GetProducts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "third", products[0].Name)
	assert.Equal(t, "first", products[2].Name)
}

func TestGetProducts_Filters(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: "Oak Table", Category: "furniture", Price: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, &ProductCreateRequest{Name: "Tea Cup", Category: "kitchen", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	products, err := s.GetProducts(ctx, &ProductListRequest{Category: "kitchen"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tea Cup", products[0].Name)

	products, err = s.GetProducts(ctx, &ProductListRequest{Search: "oak"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Oak Table", products[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: "Chair", Price: decimal.NewFromInt(40), Stock: 1})
	require.NoError(t, err)

	price := decimal.NewFromInt(35)
	stock := 9
	updated, err := s.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, "Chair", updated.Name)

	negative := -1
	_, err = s.UpdateProduct(ctx, p.ID, &ProductUpdateRequest{Stock: &negative})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = s.UpdateProduct(ctx, 999, &ProductUpdateRequest{Stock: &stock})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: "Vase", Price: decimal.NewFromInt(12)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))

	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), apperror.ErrNotFound)
}

func TestDecrementStock_Guarded(t *testing.T) {
	db := testutil.NewDB(t, &Product{})
	s := NewService(db)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, &ProductCreateRequest{Name: "Pen", Price: decimal.NewFromInt(2), Stock: 3})
	require.NoError(t, err)

	require.NoError(t, DecrementStock(db, p.ID, 2))
	assert.ErrorIs(t, DecrementStock(db, p.ID, 2), apperror.ErrInsufficientStock)
	require.NoError(t, DecrementStock(db, p.ID, 1))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

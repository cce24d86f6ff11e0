package service_test

import (
	"context"
	"testing"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t, "cart@example.com")
	p1 := f.product(t, "CART-1", "19.99", 10)
	p2 := f.product(t, "CART-2", "5.00", 10)

	cart, err := f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())

	cart, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p1.ID, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("39.98").Equal(cart.TotalPrice), "got %s", cart.TotalPrice)

	price := decimal.RequireFromString("4.50")
	cart, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p2.ID, Quantity: 1, UnitPrice: &price})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("44.48").Equal(cart.TotalPrice), "got %s", cart.TotalPrice)

	cart, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p1.ID, Quantity: 1, WarrantyPlanIDs: []int64{3, 2, 3}})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, []int64{2, 3}, cart.Items[0].WarrantyPlanIDs)

	_, err = f.carts.SetQuantities(ctx, user.ID, service.SetQuantitiesRequest{Items: []models.QuantityUpdate{
		{ProductID: p1.ID, Quantity: 1},
		{ProductID: p2.ID + 1000, Quantity: 1},
	}})
	assert.ErrorIs(t, err, database.ErrCartItemNotFound)

	cart, err = f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity, "failed batch must not apply any update")

	cart, err = f.carts.SetQuantity(ctx, user.ID, p2.ID, 4)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("77.97").Equal(cart.TotalPrice), "got %s", cart.TotalPrice)

	_, err = f.carts.SetQuantity(ctx, user.ID, p2.ID, 0)
	assert.ErrorIs(t, err, database.ErrValidation)

	cart, err = f.carts.RemoveItem(ctx, user.ID, p1.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, decimal.NewFromInt(18).Equal(cart.TotalPrice), "got %s", cart.TotalPrice)

	cart, err = f.carts.Clear(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())
}

func TestCartErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t, "carterr@example.com")
	p := f.product(t, "CART-E", "1", 1)

	_, err := f.carts.Get(ctx, user.ID+1000)
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = f.carts.AddItem(ctx, user.ID+1000, service.AddItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p.ID + 1000, Quantity: 1})
	assert.ErrorIs(t, err, database.ErrProductNotFound)

	_, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p.ID, Quantity: 0})
	assert.ErrorIs(t, err, database.ErrValidation)

	fraction := decimal.RequireFromString("0.005")
	_, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p.ID, Quantity: 3, UnitPrice: &fraction})
	assert.ErrorIs(t, err, database.ErrValidation)
	assert.ErrorContains(t, err, "unit_price must have at most 2 decimal places")
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t, "checkout@example.com")
	p := f.product(t, "CHK-1", "25", 3)

	_, err := f.orders.Checkout(ctx, user.ID, service.CheckoutRequest{ShippingDetails: shipping})
	assert.ErrorIs(t, err, database.ErrEmptyCart)

	_, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	order, err := f.orders.Checkout(ctx, user.ID, service.CheckoutRequest{ShippingDetails: shipping})
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, user.ID, *order.UserID)
	assert.True(t, decimal.NewFromInt(50).Equal(order.TotalPrice), "got %s", order.TotalPrice)

	cart, err := f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	after, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Inventory)
	assert.Equal(t, 2, after.Sold)

	_, err = f.carts.AddItem(ctx, user.ID, service.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = f.orders.Checkout(ctx, user.ID, service.CheckoutRequest{ShippingDetails: shipping})
	assert.ErrorIs(t, err, database.ErrInsufficientInventory)

	cart, err = f.carts.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "cart survives a failed checkout")
}

func TestWarrantyPlanRejectsUnknownUnit(t *testing.T) {
	f := newFixture(t)

	_, err := f.warranties.Create(context.Background(), service.CreateWarrantyPlanRequest{
		Name: "Weird", Duration: 1, DurationUnit: "năm",
	})
	assert.ErrorIs(t, err, database.ErrValidation)
}

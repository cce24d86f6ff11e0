package models

import (
	"testing"

	"github.com/safar/storefront/internal/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(productID int64, qty int, price int64) CartItem {
	return CartItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func assertTotalConsistent(t *testing.T, c *Cart) {
	t.Helper()
	want := decimal.Zero
	for _, it := range c.Items {
		want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, want.Equal(c.TotalPrice), "total %s, want %s", c.TotalPrice, want)
}

func TestCartAddItemAccumulatesQuantity(t *testing.T) {
	c := NewCart(1)

	require.NoError(t, c.AddItem(CartItem{ProductID: 10, Quantity: 2, UnitPrice: decimal.NewFromInt(50), WarrantyPlanIDs: []int64{1}}))
	require.NoError(t, c.AddItem(CartItem{ProductID: 10, Quantity: 3, UnitPrice: decimal.NewFromInt(50), WarrantyPlanIDs: []int64{2, 3}}))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, []int64{2, 3}, c.Items[0].WarrantyPlanIDs)
	assert.True(t, decimal.NewFromInt(250).Equal(c.TotalPrice))
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	c := NewCart(1)

	err := c.AddItem(item(10, 0, 50))
	assert.ErrorIs(t, err, database.ErrValidation)
	assert.Empty(t, c.Items)
}

func TestCartTotalAfterMutations(t *testing.T) {
	c := NewCart(1)

	require.NoError(t, c.AddItem(item(1, 2, 100)))
	assertTotalConsistent(t, c)
	require.NoError(t, c.AddItem(CartItem{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")}))
	assertTotalConsistent(t, c)
	require.NoError(t, c.SetQuantity(2, 4))
	assertTotalConsistent(t, c)
	c.RemoveItem(1)
	assertTotalConsistent(t, c)
	c.RemoveItem(99)
	assertTotalConsistent(t, c)

	assert.True(t, decimal.RequireFromString("79.96").Equal(c.TotalPrice))
}

func TestCartSetQuantityMissing(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.AddItem(item(1, 1, 10)))

	err := c.SetQuantity(2, 3)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestCartSetQuantitiesAllOrNothing(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.AddItem(item(1, 1, 10)))
	require.NoError(t, c.AddItem(item(2, 1, 20)))

	err := c.SetQuantities([]QuantityUpdate{
		{ProductID: 1, Quantity: 5},
		{ProductID: 3, Quantity: 2},
		{ProductID: 4, Quantity: 2},
	})
	require.ErrorIs(t, err, database.ErrNotFound)
	assert.Contains(t, err.Error(), "product 3")

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(c.TotalPrice))

	require.NoError(t, c.SetQuantities([]QuantityUpdate{
		{ProductID: 1, Quantity: 5},
		{ProductID: 2, Quantity: 2},
	}))
	assert.True(t, decimal.NewFromInt(90).Equal(c.TotalPrice))
}

func TestCartClear(t *testing.T) {
	c := NewCart(1)
	require.NoError(t, c.AddItem(item(1, 3, 10)))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalPrice.IsZero())
}

package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	VariantID       *int64          `json:"variant_id,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	WarrantyPlanIDs []int64         `json:"warranty_plan_ids"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a user's single active cart. TotalPrice is derived from Items by
// Recalculate, which every mutating method calls before returning.
type Cart struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

type QuantityUpdate struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func NewCart(userID int64) *Cart {
	return &Cart{
		UserID:     userID,
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
	}
}

// AddItem appends item, or when the product is already in the cart adds to
// its quantity and replaces its warranty selection.
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity < 1 {
		return database.Validationf("quantity must be at least 1")
	}

	if idx := c.indexOf(item.ProductID); idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
		c.Items[idx].WarrantyPlanIDs = slices.Clone(item.WarrantyPlanIDs)
	} else {
		item.ID = 0
		item.WarrantyPlanIDs = slices.Clone(item.WarrantyPlanIDs)
		c.Items = append(c.Items, item)
	}

	c.Recalculate()
	return nil
}

// RemoveItem drops every line for productID. Absent products are ignored.
func (c *Cart) RemoveItem(productID int64) {
	c.Items = slices.DeleteFunc(c.Items, func(item CartItem) bool {
		return item.ProductID == productID
	})
	c.Recalculate()
}

func (c *Cart) SetQuantity(productID int64, quantity int) error {
	return c.SetQuantities([]QuantityUpdate{{ProductID: productID, Quantity: quantity}})
}

// SetQuantities applies every update or none of them.
func (c *Cart) SetQuantities(updates []QuantityUpdate) error {
	indexes := make([]int, len(updates))
	for i, u := range updates {
		if u.Quantity < 1 {
			return database.Validationf("quantity for product %d must be at least 1", u.ProductID)
		}
		idx := c.indexOf(u.ProductID)
		if idx < 0 {
			return fmt.Errorf("product %d: %w", u.ProductID, database.ErrCartItemNotFound)
		}
		indexes[i] = idx
	}

	for i, u := range updates {
		c.Items[indexes[i]].Quantity = u.Quantity
	}

	c.Recalculate()
	return nil
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	c.TotalPrice = total
}

func (c *Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c.Items, func(item CartItem) bool {
		return item.ProductID == productID
	})
}

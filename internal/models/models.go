package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Product is a catalog entry together with its stock counters.
type Product struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	Inventory       int             `json:"inventory"`
	Sold            int             `json:"sold"`
	WarrantyPlanIDs []int64         `json:"warranty_plan_ids"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// EffectivePrice is the sale price when one is set, the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.Price
}

func (p *Product) OffersWarranty(planID int64) bool {
	return slices.Contains(p.WarrantyPlanIDs, planID)
}

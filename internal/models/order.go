package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// orderStatusRank orders the fulfillment path. Cancelled sits off the path.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func (s OrderStatus) Valid() bool {
	_, onPath := orderStatusRank[s]
	return onPath || s == OrderStatusCancelled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order in s may move to next. Moves go
// forward along Pending → Processing → Shipped → Delivered (steps may be
// skipped); Cancelled is reachable from any non-terminal state; staying put
// is allowed for non-terminal states.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[next] >= orderStatusRank[s]
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type WarrantyAssignment struct {
	WarrantyPlanID int64     `json:"warranty_plan_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type OrderItem struct {
	ID              int64                `json:"id"`
	OrderID         int64                `json:"order_id"`
	ProductID       int64                `json:"product_id"`
	VariantID       *int64               `json:"variant_id,omitempty"`
	Quantity        int                  `json:"quantity"`
	UnitPrice       decimal.Decimal      `json:"unit_price"`
	WarrantyPlanIDs []int64              `json:"warranty_plan_ids"`
	WarrantyCode    string               `json:"warranty_code,omitempty"`
	Warranties      []WarrantyAssignment `json:"warranties,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          *int64          `json:"user_id,omitempty"`
	OrderNumber     string          `json:"order_number"`
	Items           []OrderItem     `json:"items,omitempty"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Discount        decimal.Decimal `json:"discount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ShippingAddress string          `json:"shipping_address"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	OrderStatus     OrderStatus     `json:"order_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// Recalculate derives SubTotal from Items and TotalPrice from SubTotal and
// Discount. The store calls it before every write.
func (o *Order) Recalculate() {
	sub := decimal.Zero
	for _, item := range o.Items {
		sub = sub.Add(item.LineTotal())
	}
	o.SubTotal = sub
	o.TotalPrice = OrderTotal(sub, o.Discount)
}

var hundred = decimal.NewFromInt(100)

// OrderTotal applies discount to subTotal. A discount below 100 is a
// percentage; 100 or more is a flat amount. The result never drops below
// zero and is rounded to cents.
func OrderTotal(subTotal, discount decimal.Decimal) decimal.Decimal {
	var total decimal.Decimal
	if discount.LessThan(hundred) {
		total = subTotal.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
	} else {
		total = subTotal.Sub(discount)
	}

	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// AttachWarranties assigns warranties to every line whose product offers at
// least one of the plans the buyer selected. offered maps product id to the
// plans that product offers; plans resolves plan ids. Each matching line gets
// one code from newCode and one assignment per matching plan, all expiring
// relative to now. Lines without a match are left untouched. It returns the
// number of lines that received a code.
func (o *Order) AttachWarranties(offered map[int64][]int64, plans map[int64]WarrantyPlan, now time.Time, newCode func() string) int {
	attached := 0
	for i := range o.Items {
		item := &o.Items[i]
		if len(item.WarrantyPlanIDs) == 0 {
			continue
		}

		var assignments []WarrantyAssignment
		for _, planID := range offered[item.ProductID] {
			if !slices.Contains(item.WarrantyPlanIDs, planID) {
				continue
			}
			plan, ok := plans[planID]
			if !ok {
				continue
			}
			assignments = append(assignments, WarrantyAssignment{
				WarrantyPlanID: planID,
				ExpiresAt:      plan.ExpiryFrom(now),
			})
		}

		if len(assignments) == 0 {
			continue
		}

		item.Warranties = append(item.Warranties, assignments...)
		item.WarrantyCode = newCode()
		attached++
	}
	return attached
}

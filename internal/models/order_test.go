package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotal(t *testing.T) {
	tests := []struct {
		name     string
		subTotal string
		discount string
		want     string
	}{
		{"percentage", "100", "20", "80"},
		{"no discount", "100", "0", "100"},
		{"flat", "500", "150", "350"},
		{"flat exceeds subtotal", "100", "150", "0"},
		{"exactly 100 is flat", "100", "100", "0"},
		{"rounded to cents", "9.99", "33", "6.69"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderTotal(decimal.RequireFromString(tt.subTotal), decimal.RequireFromString(tt.discount))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOrderRecalculate(t *testing.T) {
	o := &Order{
		Discount: decimal.NewFromInt(20),
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
			{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
		},
	}

	o.Recalculate()

	assert.True(t, decimal.NewFromInt(100).Equal(o.SubTotal))
	assert.True(t, decimal.NewFromInt(80).Equal(o.TotalPrice))
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusProcessing, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusDelivered, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatus("Lost"), false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatusValid(t *testing.T) {
	assert.True(t, PaymentStatusRefunded.Valid())
	assert.False(t, PaymentStatus("Chargeback").Valid())
}

func TestAttachWarranties(t *testing.T) {
	const (
		planA int64 = 1
		planB int64 = 2
		planC int64 = 3
	)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	plans := map[int64]WarrantyPlan{
		planA: {ID: planA, Duration: 6, DurationUnit: DurationMonths},
		planB: {ID: planB, Duration: 1, DurationUnit: DurationYears},
		planC: {ID: planC, Duration: 30, DurationUnit: DurationDays},
	}
	offered := map[int64][]int64{
		100: {planA, planB},
		200: {planA},
	}

	o := &Order{Items: []OrderItem{
		{ProductID: 100, Quantity: 1, WarrantyPlanIDs: []int64{planB, planC}},
		{ProductID: 200, Quantity: 1, WarrantyPlanIDs: []int64{planC}},
		{ProductID: 300, Quantity: 1},
	}}

	codes := 0
	attached := o.AttachWarranties(offered, plans, now, func() string {
		codes++
		return fmt.Sprintf("W-TEST%d", codes)
	})

	assert.Equal(t, 1, attached)

	require.Len(t, o.Items[0].Warranties, 1)
	assert.Equal(t, planB, o.Items[0].Warranties[0].WarrantyPlanID)
	assert.Equal(t, now.AddDate(1, 0, 0), o.Items[0].Warranties[0].ExpiresAt)
	assert.Equal(t, "W-TEST1", o.Items[0].WarrantyCode)

	assert.Empty(t, o.Items[1].Warranties)
	assert.Empty(t, o.Items[1].WarrantyCode)
	assert.Empty(t, o.Items[2].Warranties)
	assert.Empty(t, o.Items[2].WarrantyCode)
}

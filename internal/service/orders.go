package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	// UnitPrice defaults to the product's effective price when omitted.
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	WarrantyPlanIDs []int64          `json:"warranty_plan_ids" validate:"dive,gt=0"`
}

// ShippingDetails are the buyer-facing fields shared by direct orders and
// cart checkout.
type ShippingDetails struct {
	ShippingAddress string          `json:"shipping_address" validate:"required"`
	Phone           string          `json:"phone" validate:"required,phone"`
	Email           string          `json:"email" validate:"required,email"`
	PaymentMethod   string          `json:"payment_method"`
	Discount        decimal.Decimal `json:"discount"`
}

type CreateOrderRequest struct {
	UserID *int64             `json:"user_id"`
	Items  []OrderItemRequest `json:"items"`
	ShippingDetails
}

type orderLines struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CheckoutRequest struct {
	ShippingDetails
}

type UpdateStatusRequest struct {
	OrderStatus   models.OrderStatus   `json:"order_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

type Orders struct {
	db         *sql.DB
	maxRetries int
	newCode    func() string
	now        func() time.Time
}

func NewOrders(db *sql.DB, cfg config.OrdersConfig) *Orders {
	return &Orders{
		db:         db,
		maxRetries: cfg.MaxRetries,
		newCode:    NewWarrantyCodeGenerator(cfg.WarrantyCodePrefix),
		now:        time.Now,
	}
}

// Create places an order for the given lines. Inventory for every line is
// moved to sold in the same transaction that writes the order, so either
// all of it happens or none of it does.
func (s *Orders) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validateShipping(&req.ShippingDetails); err != nil {
		return nil, err
	}
	if err := validateRequest(orderLines{Items: req.Items}); err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if item.UnitPrice != nil {
			if err := requireAmount("unit_price", *item.UnitPrice); err != nil {
				return nil, err
			}
		}
	}

	var order *models.Order
	err := database.WithRetry(ctx, s.db, database.CheckoutTxOptions(s.maxRetries), func(tx *sql.Tx) error {
		if req.UserID != nil {
			if err := store.EnsureUserExists(ctx, tx, *req.UserID); err != nil {
				return err
			}
		}

		order = newOrder(req.UserID, req.ShippingDetails)
		return placeOrder(ctx, tx, order, req.Items)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"items", len(order.Items),
		"total", order.TotalPrice.String())

	return order, nil
}

// Checkout turns the user's cart into an order and empties the cart. The
// cart keeps its contents if the order cannot be placed.
func (s *Orders) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (*models.Order, error) {
	if err := s.validateShipping(&req.ShippingDetails); err != nil {
		return nil, err
	}

	var order *models.Order
	err := database.WithRetry(ctx, s.db, database.CheckoutTxOptions(s.maxRetries), func(tx *sql.Tx) error {
		if err := store.EnsureUserExists(ctx, tx, userID); err != nil {
			return err
		}

		cart, err := store.GetCartForUpdate(ctx, tx, userID)
		if errors.Is(err, database.ErrCartNotFound) {
			return database.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return database.ErrEmptyCart
		}

		lines := make([]OrderItemRequest, len(cart.Items))
		for i, item := range cart.Items {
			price := item.UnitPrice
			lines[i] = OrderItemRequest{
				ProductID:       item.ProductID,
				VariantID:       item.VariantID,
				Quantity:        item.Quantity,
				UnitPrice:       &price,
				WarrantyPlanIDs: item.WarrantyPlanIDs,
			}
		}

		order = newOrder(&userID, req.ShippingDetails)
		if err := placeOrder(ctx, tx, order, lines); err != nil {
			return err
		}

		cart.Clear()
		return store.SaveCart(ctx, tx, cart)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "cart checked out",
		"user_id", userID,
		"order_id", order.ID,
		"total", order.TotalPrice.String())

	return order, nil
}

// validateShipping trims the free-text fields in place before checking them,
// so whitespace alone never satisfies required.
func (s *Orders) validateShipping(d *ShippingDetails) error {
	d.ShippingAddress = strings.TrimSpace(d.ShippingAddress)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)

	if err := validateRequest(d); err != nil {
		return err
	}
	return requireAmount("discount", d.Discount)
}

func newOrder(userID *int64, d ShippingDetails) *models.Order {
	return &models.Order{
		UserID:          userID,
		ShippingAddress: d.ShippingAddress,
		Phone:           d.Phone,
		Email:           d.Email,
		PaymentMethod:   d.PaymentMethod,
		Discount:        d.Discount,
		PaymentStatus:   models.PaymentStatusPending,
		OrderStatus:     models.OrderStatusPending,
	}
}

// placeOrder locks the referenced products, checks that every product can
// cover the combined quantity requested across lines, moves that quantity
// from inventory to sold and writes the order. Products are decremented in
// ascending id order to match the lock order.
func placeOrder(ctx context.Context, tx *sql.Tx, order *models.Order, lines []OrderItemRequest) error {
	requested := make(map[int64]int, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, seen := requested[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	products, err := store.LockProducts(ctx, tx, ids)
	if err != nil {
		return err
	}

	sorted := slices.Sorted(maps.Keys(requested))
	for _, id := range sorted {
		if products[id].Inventory < requested[id] {
			return fmt.Errorf("product %d: requested %d, available %d: %w",
				id, requested[id], products[id].Inventory, database.ErrInsufficientInventory)
		}
	}

	for _, id := range sorted {
		if err := store.DecrementInventory(ctx, tx, id, requested[id]); err != nil {
			return err
		}
	}

	order.Items = make([]models.OrderItem, len(lines))
	for i, line := range lines {
		price := products[line.ProductID].EffectivePrice()
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}

		plans := slices.Clone(line.WarrantyPlanIDs)
		slices.Sort(plans)

		order.Items[i] = models.OrderItem{
			ProductID:       line.ProductID,
			VariantID:       line.VariantID,
			Quantity:        line.Quantity,
			UnitPrice:       price,
			WarrantyPlanIDs: slices.Compact(plans),
		}
	}

	return store.InsertOrder(ctx, tx, order)
}

func (s *Orders) Get(ctx context.Context, id int64) (*models.Order, error) {
	return store.GetOrder(ctx, s.db, id)
}

func (s *Orders) List(ctx context.Context, filter store.OrderFilter, page, pageSize int) (*store.OffsetPage[models.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, database.Validationf("unknown order status %q", filter.Status)
	}
	page, pageSize = store.NormalizePage(page, pageSize)
	return store.ListOrders(ctx, s.db, filter, page, pageSize)
}

// ListForUser pages through a user's orders, newest first.
func (s *Orders) ListForUser(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage[models.Order], error) {
	if err := store.EnsureUserExists(ctx, s.db, userID); err != nil {
		return nil, err
	}
	_, limit = store.NormalizePage(1, limit)
	return store.ListOrdersCursor(ctx, s.db, userID, cursor, limit)
}

// UpdateStatus changes the order and/or payment status. Moving an order into
// Delivered assigns warranties: each line gets every plan it selected that
// its product offers, all expiring relative to the same instant, plus one
// warranty code per covered line.
func (s *Orders) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest) (*models.Order, error) {
	if req.OrderStatus == "" && req.PaymentStatus == "" {
		return nil, database.Validationf("order_status or payment_status is required")
	}
	if req.OrderStatus != "" && !req.OrderStatus.Valid() {
		return nil, database.Validationf("unknown order status %q", req.OrderStatus)
	}
	if req.PaymentStatus != "" && !req.PaymentStatus.Valid() {
		return nil, database.Validationf("unknown payment status %q", req.PaymentStatus)
	}

	var order *models.Order
	var attached int
	err := database.WithRetry(ctx, s.db, database.CheckoutTxOptions(s.maxRetries), func(tx *sql.Tx) error {
		var err error
		attached = 0
		order, err = store.GetOrderForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		changed := false
		from := order.OrderStatus

		if req.OrderStatus != "" && req.OrderStatus != from {
			if !from.CanTransitionTo(req.OrderStatus) {
				return fmt.Errorf("%s to %s: %w", from, req.OrderStatus, database.ErrInvalidTransition)
			}
			order.OrderStatus = req.OrderStatus
			changed = true

			if req.OrderStatus == models.OrderStatusDelivered {
				attached, err = s.attachWarranties(ctx, tx, order)
				if err != nil {
					return err
				}
			}
		}

		if req.PaymentStatus != "" && req.PaymentStatus != order.PaymentStatus {
			order.PaymentStatus = req.PaymentStatus
			changed = true
		}

		if !changed {
			return nil
		}
		return store.UpdateOrder(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status updated",
		"order_id", order.ID,
		"order_status", order.OrderStatus,
		"payment_status", order.PaymentStatus,
		"warranty_codes", attached)

	return order, nil
}

func (s *Orders) attachWarranties(ctx context.Context, tx *sql.Tx, order *models.Order) (int, error) {
	productIDs := make([]int64, 0, len(order.Items))
	var planIDs []int64
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
		planIDs = append(planIDs, item.WarrantyPlanIDs...)
	}
	if len(planIDs) == 0 {
		return 0, nil
	}

	offered, err := store.ProductWarrantyPlans(ctx, tx, productIDs)
	if err != nil {
		return 0, err
	}

	slices.Sort(planIDs)
	plans, err := store.GetWarrantyPlansByIDs(ctx, tx, slices.Compact(planIDs))
	if err != nil {
		return 0, err
	}

	return order.AttachWarranties(offered, plans, s.now(), s.newCode), nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	err        error
	created    service.CreateOrderRequest
	filter     store.OrderFilter
	page       int
	pageSize   int
	statusReq  service.UpdateStatusRequest
	checkoutID int64
}

func (f *fakeOrders) Create(_ context.Context, req service.CreateOrderRequest) (*models.Order, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: 1, OrderStatus: models.OrderStatusPending}, nil
}

func (f *fakeOrders) Checkout(_ context.Context, userID int64, _ service.CheckoutRequest) (*models.Order, error) {
	f.checkoutID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: 2, UserID: &userID}, nil
}

func (f *fakeOrders) Get(_ context.Context, id int64) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: id}, nil
}

func (f *fakeOrders) List(_ context.Context, filter store.OrderFilter, page, pageSize int) (*store.OffsetPage[models.Order], error) {
	f.filter, f.page, f.pageSize = filter, page, pageSize
	return &store.OffsetPage[models.Order]{Items: []models.Order{}}, f.err
}

func (f *fakeOrders) ListForUser(context.Context, int64, string, int) (*store.CursorPage[models.Order], error) {
	return &store.CursorPage[models.Order]{Items: []models.Order{}}, f.err
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, req service.UpdateStatusRequest) (*models.Order, error) {
	f.statusReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: id, OrderStatus: req.OrderStatus}, nil
}

type fakeCarts struct {
	err error
}

func (f *fakeCarts) Get(_ context.Context, userID int64) (*models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return models.NewCart(userID), nil
}

func (f *fakeCarts) AddItem(_ context.Context, userID int64, req service.AddItemRequest) (*models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	cart := models.NewCart(userID)
	err := cart.AddItem(models.CartItem{ProductID: req.ProductID, Quantity: req.Quantity, UnitPrice: *req.UnitPrice})
	return cart, err
}

func (f *fakeCarts) RemoveItem(_ context.Context, userID, _ int64) (*models.Cart, error) {
	return models.NewCart(userID), f.err
}

func (f *fakeCarts) SetQuantity(_ context.Context, userID, _ int64, _ int) (*models.Cart, error) {
	return models.NewCart(userID), f.err
}

func (f *fakeCarts) SetQuantities(_ context.Context, userID int64, _ service.SetQuantitiesRequest) (*models.Cart, error) {
	return models.NewCart(userID), f.err
}

func (f *fakeCarts) Clear(_ context.Context, userID int64) (*models.Cart, error) {
	return models.NewCart(userID), f.err
}

func newTestRouter(orders *fakeOrders, carts *fakeCarts) *gin.Engine {
	return NewRouter(config.ServerConfig{Mode: gin.TestMode, RequestTimeout: time.Second}, Services{
		Orders: orders,
		Carts:  carts,
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPingSetsTraceID(t *testing.T) {
	r := newTestRouter(&fakeOrders{}, &fakeCarts{})

	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(traceIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(traceIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(traceIDHeader))
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", database.Validationf("phone is required"), http.StatusBadRequest, "phone is required"},
		{"not found", fmt.Errorf("order 9: %w", database.ErrOrderNotFound), http.StatusNotFound, "order 9"},
		{"insufficient", fmt.Errorf("product 1: %w", database.ErrInsufficientInventory), http.StatusConflict, "insufficient inventory"},
		{"conflict", database.ErrOptimisticLockFailed, http.StatusConflict, "optimistic lock failed"},
		{"transition", database.ErrInvalidTransition, http.StatusBadRequest, "invalid status transition"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeOrders{err: tt.err}, &fakeCarts{})

			w := do(r, http.MethodGet, "/orders/9", "")
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantBody)
			assert.NotContains(t, body["error"], "pq:")
		})
	}
}

func TestInvalidPathID(t *testing.T) {
	r := newTestRouter(&fakeOrders{}, &fakeCarts{})

	w := do(r, http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/users/1/cart/items/0", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderDecodesBody(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestRouter(orders, &fakeCarts{})

	w := do(r, http.MethodPost, "/orders", `{
		"user_id": 7,
		"items": [{"product_id": 3, "quantity": 2, "unit_price": "9.99", "warranty_plan_ids": [1]}],
		"shipping_address": "1 Main St",
		"phone": "0901234567",
		"email": "buyer@example.com",
		"discount": 10
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req := orders.created
	require.NotNil(t, req.UserID)
	assert.Equal(t, int64(7), *req.UserID)
	require.Len(t, req.Items, 1)
	assert.True(t, decimal.RequireFromString("9.99").Equal(*req.Items[0].UnitPrice))
	assert.Equal(t, []int64{1}, req.Items[0].WarrantyPlanIDs)
	assert.Equal(t, "1 Main St", req.ShippingAddress)
	assert.True(t, decimal.NewFromInt(10).Equal(req.Discount))

	w = do(r, http.MethodPost, "/orders", `{"items": [`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrdersQuery(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestRouter(orders, &fakeCarts{})

	w := do(r, http.MethodGet, "/orders?phone=0901&status=Shipped&page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0901", orders.filter.Phone)
	assert.Equal(t, models.OrderStatusShipped, orders.filter.Status)
	assert.Equal(t, 2, orders.page)
	assert.Equal(t, 5, orders.pageSize)
}

func TestUpdateStatusAndCheckoutRoutes(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestRouter(orders, &fakeCarts{})

	w := do(r, http.MethodPatch, "/orders/4/status", `{"order_status":"Delivered"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderStatusDelivered, orders.statusReq.OrderStatus)

	w = do(r, http.MethodPost, "/users/12/checkout", `{"shipping_address":"x","phone":"0901234567","email":"a@b.co"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(12), orders.checkoutID)
}

func TestCartRoutes(t *testing.T) {
	r := newTestRouter(&fakeOrders{}, &fakeCarts{})

	w := do(r, http.MethodPost, "/users/5/cart/items", `{"product_id":3,"quantity":2,"unit_price":4.5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cart models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, int64(5), cart.UserID)
	assert.True(t, decimal.NewFromInt(9).Equal(cart.TotalPrice))

	w = do(r, http.MethodDelete, "/users/5/cart", "")
	assert.Equal(t, http.StatusOK, w.Code)

	r = newTestRouter(&fakeOrders{}, &fakeCarts{err: database.ErrUserNotFound})
	w = do(r, http.MethodGet, "/users/5/cart", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Package api exposes the storefront services over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
)

type UserService interface {
	Create(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type CatalogService interface {
	CreateProduct(ctx context.Context, req service.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage[models.Product], error)
	SetWarrantyPlans(ctx context.Context, productID int64, planIDs []int64) (*models.Product, error)
	Restock(ctx context.Context, productID int64, req service.RestockRequest) (*models.Product, error)
}

type WarrantyService interface {
	Create(ctx context.Context, req service.CreateWarrantyPlanRequest) (*models.WarrantyPlan, error)
	Get(ctx context.Context, id int64) (*models.WarrantyPlan, error)
	List(ctx context.Context) ([]models.WarrantyPlan, error)
	Lookup(ctx context.Context, code string) (*models.WarrantyLookup, error)
}

type CartService interface {
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID int64, req service.AddItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	SetQuantities(ctx context.Context, userID int64, req service.SetQuantitiesRequest) (*models.Cart, error)
	Clear(ctx context.Context, userID int64) (*models.Cart, error)
}

type OrderService interface {
	Create(ctx context.Context, req service.CreateOrderRequest) (*models.Order, error)
	Checkout(ctx context.Context, userID int64, req service.CheckoutRequest) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, filter store.OrderFilter, page, pageSize int) (*store.OffsetPage[models.Order], error)
	ListForUser(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage[models.Order], error)
	UpdateStatus(ctx context.Context, id int64, req service.UpdateStatusRequest) (*models.Order, error)
}

type Services struct {
	Users      UserService
	Catalog    CatalogService
	Warranties WarrantyService
	Carts      CartService
	Orders     OrderService
}

type handler struct {
	Services
}

func NewRouter(cfg config.ServerConfig, svc Services) *gin.Engine {
	if cfg.Mode == gin.ReleaseMode || cfg.Mode == gin.TestMode {
		gin.SetMode(cfg.Mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(traceID(), logger(), gin.Recovery(), requestTimeout(cfg.RequestTimeout))

	h := &handler{Services: svc}

	r.GET("/ping", healthCheck)

	r.POST("/users", h.createUser)
	r.GET("/users/:id", h.getUser)

	r.POST("/products", h.createProduct)
	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)
	r.PUT("/products/:id/warranties", h.setProductWarranties)
	r.PATCH("/products/:id/inventory", h.restockProduct)

	r.POST("/warranties", h.createWarrantyPlan)
	r.GET("/warranties", h.listWarrantyPlans)
	r.GET("/warranties/:id", h.getWarrantyPlan)
	r.GET("/warranties/codes/:code", h.lookupWarranty)

	cart := r.Group("/users/:id/cart")
	{
		cart.GET("", h.getCart)
		cart.DELETE("", h.clearCart)
		cart.POST("/items", h.addCartItem)
		cart.POST("/items/batch", h.setCartQuantities)
		cart.PATCH("/items/:productId", h.setCartQuantity)
		cart.DELETE("/items/:productId", h.removeCartItem)
	}

	r.POST("/users/:id/checkout", h.checkout)
	r.GET("/users/:id/orders", h.listUserOrders)

	r.POST("/orders", h.createOrder)
	r.GET("/orders", h.listOrders)
	r.GET("/orders/:id", h.getOrder)
	r.PATCH("/orders/:id/status", h.updateOrderStatus)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

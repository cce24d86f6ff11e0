package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	// UnitPrice defaults to the product's effective price when omitted.
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	WarrantyPlanIDs []int64          `json:"warranty_plan_ids" validate:"dive,gt=0"`
}

type SetQuantitiesRequest struct {
	Items []models.QuantityUpdate `json:"items" validate:"required,min=1"`
}

type Carts struct {
	db *sql.DB
}

func NewCarts(db *sql.DB) *Carts {
	return &Carts{db: db}
}

// Get returns the user's cart. A user who never added anything gets an
// empty, unsaved cart.
func (s *Carts) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	if err := store.EnsureUserExists(ctx, s.db, userID); err != nil {
		return nil, err
	}

	cart, err := store.GetCart(ctx, s.db, userID)
	if errors.Is(err, database.ErrCartNotFound) {
		return models.NewCart(userID), nil
	}
	return cart, err
}

func (s *Carts) AddItem(ctx context.Context, userID int64, req AddItemRequest) (*models.Cart, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.UnitPrice != nil {
		if err := requireAmount("unit_price", *req.UnitPrice); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, userID, func(tx *sql.Tx, cart *models.Cart) error {
		product, err := store.GetProduct(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}

		price := product.EffectivePrice()
		if req.UnitPrice != nil {
			price = *req.UnitPrice
		}

		plans := slices.Clone(req.WarrantyPlanIDs)
		slices.Sort(plans)

		return cart.AddItem(models.CartItem{
			ProductID:       req.ProductID,
			VariantID:       req.VariantID,
			Quantity:        req.Quantity,
			UnitPrice:       price,
			WarrantyPlanIDs: slices.Compact(plans),
		})
	})
}

func (s *Carts) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(_ *sql.Tx, cart *models.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

func (s *Carts) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(_ *sql.Tx, cart *models.Cart) error {
		return cart.SetQuantity(productID, quantity)
	})
}

// SetQuantities updates several lines at once. If any update is invalid the
// cart is left as it was.
func (s *Carts) SetQuantities(ctx context.Context, userID int64, req SetQuantitiesRequest) (*models.Cart, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(_ *sql.Tx, cart *models.Cart) error {
		return cart.SetQuantities(req.Items)
	})
}

func (s *Carts) Clear(ctx context.Context, userID int64) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(_ *sql.Tx, cart *models.Cart) error {
		cart.Clear()
		return nil
	})
}

// mutate runs fn against the locked cart and saves the result in the same
// transaction. Nothing is written when fn fails.
func (s *Carts) mutate(ctx context.Context, userID int64, fn func(*sql.Tx, *models.Cart) error) (*models.Cart, error) {
	var cart *models.Cart

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := store.EnsureUserExists(ctx, tx, userID); err != nil {
			return err
		}

		var err error
		cart, err = store.GetOrCreateCartForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := fn(tx, cart); err != nil {
			return err
		}

		return store.SaveCart(ctx, tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

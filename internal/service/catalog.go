package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Inventory   int             `json:"inventory" validate:"gte=0"`
}

type RestockRequest struct {
	Inventory int `json:"inventory" validate:"gte=0"`
	Version   int `json:"version" validate:"gt=0"`
}

type Catalog struct {
	db *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

func (s *Catalog) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := requireAmount("price", req.Price); err != nil {
		return nil, err
	}
	if err := requireAmount("sale_price", req.SalePrice); err != nil {
		return nil, err
	}

	return store.CreateProduct(ctx, s.db, store.CreateProductRequest{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Inventory:   req.Inventory,
	})
}

func (s *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return store.GetProduct(ctx, s.db, id)
}

func (s *Catalog) ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage[models.Product], error) {
	page, pageSize = store.NormalizePage(page, pageSize)
	return store.ListProducts(ctx, s.db, page, pageSize)
}

// SetWarrantyPlans replaces the plans a product offers and returns the
// updated product.
func (s *Catalog) SetWarrantyPlans(ctx context.Context, productID int64, planIDs []int64) (*models.Product, error) {
	for _, id := range planIDs {
		if id <= 0 {
			return nil, database.Validationf("warranty plan ids must be positive")
		}
	}

	var product *models.Product
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := store.SetProductWarrantyPlans(ctx, tx, productID, planIDs); err != nil {
			return err
		}
		var err error
		product, err = store.GetProduct(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Restock sets the inventory count of a product. It fails with a conflict if
// the product changed since the caller read req.Version.
func (s *Catalog) Restock(ctx context.Context, productID int64, req RestockRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return store.RestockProduct(ctx, s.db, productID, req.Inventory, req.Version)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, sku, name, description, price, sale_price, inventory, sold, created_at, updated_at, version`

type CreateProductRequest struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   decimal.Decimal
	Inventory   int
}

func scanProduct(row rowScanner, product *models.Product) error {
	return row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.SalePrice,
		&product.Inventory,
		&product.Sold,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
}

func CreateProduct(ctx context.Context, db DBTX, req CreateProductRequest) (*models.Product, error) {
	product := &models.Product{WarrantyPlanIDs: []int64{}}

	query := `
		INSERT INTO products (sku, name, description, price, sale_price, inventory, sold, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	err := scanProduct(db.QueryRowContext(ctx, query,
		req.SKU, req.Name, req.Description, req.Price, req.SalePrice, req.Inventory), product)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, database.Validationf("sku %q already exists", req.SKU)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db DBTX, id int64) (*models.Product, error) {
	return getProduct(ctx, db, id, "")
}

// GetProductForUpdate locks the product row until tx ends.
func GetProductForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	return getProduct(ctx, tx, id, "FOR UPDATE")
}

func getProduct(ctx context.Context, db DBTX, id int64, lock string) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 ` + lock

	err := scanProduct(db.QueryRowContext(ctx, query, id), product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	plans, err := ProductWarrantyPlans(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}
	product.WarrantyPlanIDs = planIDsFor(plans, id)

	return product, nil
}

// LockProducts locks every referenced product in ascending id order, which
// keeps concurrent checkouts touching overlapping products from deadlocking.
// The first id that does not resolve is reported as not found.
func LockProducts(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rows, err := tx.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE id = ANY($1)
		 ORDER BY id
		 FOR UPDATE`,
		pq.Array(sorted))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]*models.Product, len(sorted))
	for rows.Next() {
		product := &models.Product{}
		if err := scanProduct(rows, product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("product %d: %w", id, database.ErrProductNotFound)
		}
	}

	plans, err := ProductWarrantyPlans(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}
	for id, product := range products {
		product.WarrantyPlanIDs = planIDsFor(plans, id)
	}

	return products, nil
}

// DecrementInventory moves quantity units from inventory to sold. The update
// only applies while enough inventory remains, so the counter can never go
// negative regardless of how many checkouts race on the same product.
func DecrementInventory(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET inventory = inventory - $1,
		     sold = sold + $1,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE id = $2
		   AND inventory >= $1`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)",
			productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return fmt.Errorf("product %d: %w", productID, database.ErrProductNotFound)
		}
		return fmt.Errorf("product %d: %w", productID, database.ErrInsufficientInventory)
	}

	return nil
}

// RestockProduct overwrites the inventory count if the caller saw the
// current version.
func RestockProduct(ctx context.Context, db DBTX, productID int64, inventory int, version int) (*models.Product, error) {
	product := &models.Product{}

	err := scanProduct(db.QueryRowContext(ctx,
		`UPDATE products
		 SET inventory = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND version = $3
		 RETURNING `+productColumns,
		inventory, productID, version), product)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("restock product: %w", err)
		}
		if _, getErr := GetProduct(ctx, db, productID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("product %d: %w", productID, database.ErrOptimisticLockFailed)
	}

	plans, err := ProductWarrantyPlans(ctx, db, []int64{productID})
	if err != nil {
		return nil, err
	}
	product.WarrantyPlanIDs = planIDsFor(plans, productID)

	return product, nil
}

// SetProductWarrantyPlans replaces the set of plans a product offers.
func SetProductWarrantyPlans(ctx context.Context, tx *sql.Tx, productID int64, planIDs []int64) error {
	if _, err := GetProductForUpdate(ctx, tx, productID); err != nil {
		return err
	}

	plans, err := GetWarrantyPlansByIDs(ctx, tx, planIDs)
	if err != nil {
		return err
	}
	for _, id := range planIDs {
		if _, ok := plans[id]; !ok {
			return fmt.Errorf("warranty plan %d: %w", id, database.ErrWarrantyPlanNotFound)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_warranty_plans WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product warranty plans: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO product_warranty_plans (product_id, warranty_plan_id)
		 SELECT $1, unnest($2::BIGINT[])
		 ON CONFLICT DO NOTHING`,
		productID, idArray(planIDs)); err != nil {
		return fmt.Errorf("insert product warranty plans: %w", err)
	}

	return nil
}

// planIDsFor never returns nil so products without plans encode as [].
func planIDsFor(plans map[int64][]int64, productID int64) []int64 {
	if ids, ok := plans[productID]; ok {
		return ids
	}
	return []int64{}
}

// ProductWarrantyPlans maps each product id to the plan ids it offers, in
// ascending plan id order. Products offering nothing are absent.
func ProductWarrantyPlans(ctx context.Context, db DBTX, productIDs []int64) (map[int64][]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT product_id, warranty_plan_id
		 FROM product_warranty_plans
		 WHERE product_id = ANY($1)
		 ORDER BY product_id, warranty_plan_id`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("get product warranty plans: %w", err)
	}
	defer rows.Close()

	plans := make(map[int64][]int64)
	for rows.Next() {
		var productID, planID int64
		if err := rows.Scan(&productID, &planID); err != nil {
			return nil, fmt.Errorf("scan product warranty plan: %w", err)
		}
		plans[productID] = append(plans[productID], planID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return plans, nil
}

func ListProducts(ctx context.Context, db DBTX, page, pageSize int) (*OffsetPage[models.Product], error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	plans, err := ProductWarrantyPlans(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].WarrantyPlanIDs = planIDsFor(plans, products[i].ID)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

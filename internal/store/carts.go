package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

func GetCart(ctx context.Context, db DBTX, userID int64) (*models.Cart, error) {
	return getCart(ctx, db, userID, "")
}

// GetOrCreateCartForUpdate returns the user's cart locked until tx ends,
// creating an empty one first if the user has none.
func GetOrCreateCartForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO carts (user_id, total_price, created_at, updated_at, version)
		 VALUES ($1, 0, NOW(), NOW(), 1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	return getCart(ctx, tx, userID, "FOR UPDATE")
}

// GetCartForUpdate locks an existing cart; it does not create one.
func GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return getCart(ctx, tx, userID, "FOR UPDATE")
}

func getCart(ctx context.Context, db DBTX, userID int64, lock string) (*models.Cart, error) {
	cart := &models.Cart{}

	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, total_price, created_at, updated_at, version
		 FROM carts
		 WHERE user_id = $1 `+lock,
		userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalPrice,
		&cart.CreatedAt,
		&cart.UpdatedAt,
		&cart.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, database.ErrCartNotFound)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, product_id, variant_id, quantity, unit_price, warranty_plan_ids
		 FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY position`,
		cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		var variantID sql.NullInt64
		err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&variantID,
			&item.Quantity,
			&item.UnitPrice,
			pq.Array(&item.WarrantyPlanIDs),
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if variantID.Valid {
			item.VariantID = &variantID.Int64
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	cart.Recalculate()
	return cart, nil
}

// SaveCart replaces the stored line items with cart.Items and persists the
// recomputed total. The cart must have been loaded with a lock in tx.
func SaveCart(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
	for i := range cart.Items {
		cart.Items[i].UnitPrice = cart.Items[i].UnitPrice.Round(2)
	}
	cart.Recalculate()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (cart_id, position, product_id, variant_id, quantity, unit_price, warranty_plan_ids)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			cart.ID, i, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice,
			idArray(item.WarrantyPlanIDs)).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	err := tx.QueryRowContext(ctx,
		`UPDATE carts
		 SET total_price = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2
		 RETURNING updated_at, version`,
		cart.TotalPrice, cart.ID).Scan(&cart.UpdatedAt, &cart.Version)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

const orderColumns = `id, user_id, order_number, sub_total, discount, total_price, shipping_address, phone, email,
	payment_method, payment_status, order_status, created_at, updated_at, version`

func scanOrder(row rowScanner, order *models.Order) error {
	var userID sql.NullInt64
	err := row.Scan(
		&order.ID,
		&userID,
		&order.OrderNumber,
		&order.SubTotal,
		&order.Discount,
		&order.TotalPrice,
		&order.ShippingAddress,
		&order.Phone,
		&order.Email,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.OrderStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return err
	}
	if userID.Valid {
		order.UserID = &userID.Int64
	}
	return nil
}

func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + time.Now().UTC().Format("20060102") + "-" + suffix[:12]
}

// InsertOrder writes order and its line items. Prices are derived from the
// items before the write; IDs and timestamps are filled in on return.
func InsertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	for i := range order.Items {
		order.Items[i].UnitPrice = order.Items[i].UnitPrice.Round(2)
	}
	order.Recalculate()
	if order.OrderNumber == "" {
		order.OrderNumber = generateOrderNumber()
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_number, sub_total, discount, total_price, shipping_address, phone, email,
		                     payment_method, payment_status, order_status, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW(), 1)
		 RETURNING id, created_at, updated_at, version`,
		order.UserID, order.OrderNumber, order.SubTotal, order.Discount, order.TotalPrice,
		order.ShippingAddress, order.Phone, order.Email, order.PaymentMethod,
		string(order.PaymentStatus), string(order.OrderStatus)).Scan(
		&order.ID, &order.CreatedAt, &order.UpdatedAt, &order.Version)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, position, product_id, variant_id, quantity, unit_price, warranty_plan_ids, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 RETURNING id, created_at`,
			order.ID, i, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice,
			idArray(item.WarrantyPlanIDs)).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}

	return nil
}

func GetOrder(ctx context.Context, db DBTX, id int64) (*models.Order, error) {
	return getOrder(ctx, db, id, "")
}

// GetOrderForUpdate locks the order row until tx ends.
func GetOrderForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	return getOrder(ctx, tx, id, "FOR UPDATE")
}

func getOrder(ctx context.Context, db DBTX, id int64, lock string) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 `+lock, id), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, database.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := getOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func getOrderItems(ctx context.Context, db DBTX, orderID int64) ([]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, variant_id, quantity, unit_price, warranty_plan_ids, warranty_code, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY position`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	index := make(map[int64]int)
	for rows.Next() {
		var item models.OrderItem
		var variantID sql.NullInt64
		var code sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&variantID,
			&item.Quantity,
			&item.UnitPrice,
			pq.Array(&item.WarrantyPlanIDs),
			&code,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if variantID.Valid {
			item.VariantID = &variantID.Int64
		}
		item.WarrantyCode = code.String
		index[item.ID] = len(items)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(items) == 0 {
		return items, nil
	}

	wrows, err := db.QueryContext(ctx,
		`SELECT w.order_item_id, w.warranty_plan_id, w.expires_at
		 FROM order_item_warranties w
		 JOIN order_items i ON i.id = w.order_item_id
		 WHERE i.order_id = $1
		 ORDER BY w.order_item_id, w.warranty_plan_id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order item warranties: %w", err)
	}
	defer wrows.Close()

	for wrows.Next() {
		var itemID int64
		var a models.WarrantyAssignment
		if err := wrows.Scan(&itemID, &a.WarrantyPlanID, &a.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan order item warranty: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Warranties = append(items[i].Warranties, a)
		}
	}

	if err := wrows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpdateOrder persists status, pricing and warranty fields of an order that
// was loaded with GetOrderForUpdate in the same tx. The version check makes
// a write based on a stale read fail instead of overwriting.
func UpdateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	order.Recalculate()

	err := tx.QueryRowContext(ctx,
		`UPDATE orders
		 SET sub_total = $1, discount = $2, total_price = $3,
		     payment_status = $4, order_status = $5,
		     updated_at = NOW(), version = version + 1
		 WHERE id = $6 AND version = $7
		 RETURNING updated_at, version`,
		order.SubTotal, order.Discount, order.TotalPrice,
		string(order.PaymentStatus), string(order.OrderStatus),
		order.ID, order.Version).Scan(&order.UpdatedAt, &order.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %d: %w", order.ID, database.ErrOptimisticLockFailed)
		}
		return fmt.Errorf("update order: %w", err)
	}

	for _, item := range order.Items {
		if item.WarrantyCode == "" {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE order_items SET warranty_code = $1 WHERE id = $2`,
			item.WarrantyCode, item.ID); err != nil {
			return fmt.Errorf("update order item warranty code: %w", err)
		}

		for _, a := range item.Warranties {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_item_warranties (order_item_id, warranty_plan_id, expires_at)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (order_item_id, warranty_plan_id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
				item.ID, a.WarrantyPlanID, a.ExpiresAt); err != nil {
				return fmt.Errorf("insert order item warranty: %w", err)
			}
		}
	}

	return nil
}

type OrderFilter struct {
	// Phone matches as a case-insensitive substring.
	Phone  string
	Status models.OrderStatus
}

// ListOrders returns order headers (without items), newest first.
func ListOrders(ctx context.Context, db DBTX, filter OrderFilter, page, pageSize int) (*OffsetPage[models.Order], error) {
	var conds []string
	var args []any

	if filter.Phone != "" {
		args = append(args, "%"+escapeLike(filter.Phone)+"%")
		conds = append(conds, fmt.Sprintf("phone ILIKE $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("order_status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, where, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(orders, total, page, pageSize), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func ListOrdersCursor(ctx context.Context, db DBTX, userID int64, cursor string, limit int) (*CursorPage[models.Order], error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage[models.Order]{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

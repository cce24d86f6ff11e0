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

const warrantyPlanColumns = `id, name, description, warranty_type, duration, duration_unit, coverage, terms, created_at`

func scanWarrantyPlan(row rowScanner, plan *models.WarrantyPlan) error {
	return row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.WarrantyType,
		&plan.Duration,
		&plan.DurationUnit,
		&plan.Coverage,
		&plan.Terms,
		&plan.CreatedAt,
	)
}

func CreateWarrantyPlan(ctx context.Context, db DBTX, plan models.WarrantyPlan) (*models.WarrantyPlan, error) {
	created := &models.WarrantyPlan{}

	query := `
		INSERT INTO warranty_plans (name, description, warranty_type, duration, duration_unit, coverage, terms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + warrantyPlanColumns

	err := scanWarrantyPlan(db.QueryRowContext(ctx, query,
		plan.Name, plan.Description, plan.WarrantyType, plan.Duration,
		string(plan.DurationUnit), plan.Coverage, plan.Terms), created)
	if err != nil {
		return nil, fmt.Errorf("create warranty plan: %w", err)
	}

	return created, nil
}

func GetWarrantyPlan(ctx context.Context, db DBTX, id int64) (*models.WarrantyPlan, error) {
	plan := &models.WarrantyPlan{}

	err := scanWarrantyPlan(db.QueryRowContext(ctx,
		`SELECT `+warrantyPlanColumns+` FROM warranty_plans WHERE id = $1`, id), plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("warranty plan %d: %w", id, database.ErrWarrantyPlanNotFound)
		}
		return nil, fmt.Errorf("get warranty plan: %w", err)
	}

	return plan, nil
}

func ListWarrantyPlans(ctx context.Context, db DBTX) ([]models.WarrantyPlan, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+warrantyPlanColumns+` FROM warranty_plans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list warranty plans: %w", err)
	}
	defer rows.Close()

	plans := []models.WarrantyPlan{}
	for rows.Next() {
		var plan models.WarrantyPlan
		if err := scanWarrantyPlan(rows, &plan); err != nil {
			return nil, fmt.Errorf("scan warranty plan: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return plans, nil
}

// GetWarrantyPlansByIDs resolves the ids that exist; missing ids are simply
// absent from the result.
func GetWarrantyPlansByIDs(ctx context.Context, db DBTX, ids []int64) (map[int64]models.WarrantyPlan, error) {
	plans := make(map[int64]models.WarrantyPlan, len(ids))
	if len(ids) == 0 {
		return plans, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+warrantyPlanColumns+` FROM warranty_plans WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get warranty plans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var plan models.WarrantyPlan
		if err := scanWarrantyPlan(rows, &plan); err != nil {
			return nil, fmt.Errorf("scan warranty plan: %w", err)
		}
		plans[plan.ID] = plan
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return plans, nil
}

// FindWarrantyByCode returns the coverage recorded for the order line that
// carries code.
func FindWarrantyByCode(ctx context.Context, db DBTX, code string) (*models.WarrantyLookup, error) {
	lookup := &models.WarrantyLookup{Code: code}

	var itemID int64
	err := db.QueryRowContext(ctx,
		`SELECT id, order_id, product_id
		 FROM order_items
		 WHERE warranty_code = $1
		 LIMIT 1`,
		code).Scan(&itemID, &lookup.OrderID, &lookup.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", code, database.ErrWarrantyCodeNotFound)
		}
		return nil, fmt.Errorf("find warranty code: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT w.warranty_plan_id, p.name, p.duration, p.duration_unit, w.expires_at
		 FROM order_item_warranties w
		 JOIN warranty_plans p ON p.id = w.warranty_plan_id
		 WHERE w.order_item_id = $1
		 ORDER BY w.warranty_plan_id`,
		itemID)
	if err != nil {
		return nil, fmt.Errorf("get warranty coverage: %w", err)
	}
	defer rows.Close()

	lookup.Warranties = []models.WarrantyCoverage{}
	for rows.Next() {
		var c models.WarrantyCoverage
		if err := rows.Scan(&c.WarrantyPlanID, &c.Name, &c.Duration, &c.DurationUnit, &c.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan warranty coverage: %w", err)
		}
		lookup.Warranties = append(lookup.Warranties, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lookup, nil
}

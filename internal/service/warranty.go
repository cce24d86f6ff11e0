package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
)

const warrantyCodeLength = 9

// NewWarrantyCodeGenerator returns codes of the form prefix + nine uppercase
// alphanumerics. Codes are random, not checked for uniqueness.
func NewWarrantyCodeGenerator(prefix string) func() string {
	return func() string {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		return prefix + id[:warrantyCodeLength]
	}
}

type CreateWarrantyPlanRequest struct {
	Name         string              `json:"name" validate:"required"`
	Description  string              `json:"description"`
	WarrantyType string              `json:"warranty_type"`
	Duration     int                 `json:"duration" validate:"gt=0"`
	DurationUnit models.DurationUnit `json:"duration_unit" validate:"required"`
	Coverage     string              `json:"coverage"`
	Terms        string              `json:"terms"`
}

type Warranties struct {
	db *sql.DB
}

func NewWarranties(db *sql.DB) *Warranties {
	return &Warranties{db: db}
}

// Create stores a plan. Only the four canonical duration units are accepted,
// so every stored plan produces a real expiry date.
func (s *Warranties) Create(ctx context.Context, req CreateWarrantyPlanRequest) (*models.WarrantyPlan, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !req.DurationUnit.Valid() {
		return nil, database.Validationf("duration_unit must be one of hours, days, months, years")
	}

	plan := models.WarrantyPlan{
		Name:         req.Name,
		Description:  req.Description,
		WarrantyType: req.WarrantyType,
		Duration:     req.Duration,
		DurationUnit: req.DurationUnit,
		Coverage:     req.Coverage,
		Terms:        req.Terms,
	}
	if plan.WarrantyType == "" {
		plan.WarrantyType = "Standard"
	}
	if plan.Coverage == "" {
		plan.Coverage = "Repair"
	}

	return store.CreateWarrantyPlan(ctx, s.db, plan)
}

func (s *Warranties) Get(ctx context.Context, id int64) (*models.WarrantyPlan, error) {
	return store.GetWarrantyPlan(ctx, s.db, id)
}

func (s *Warranties) List(ctx context.Context) ([]models.WarrantyPlan, error) {
	return store.ListWarrantyPlans(ctx, s.db)
}

// Lookup resolves a warranty code handed to a buyer at delivery.
func (s *Warranties) Lookup(ctx context.Context, code string) (*models.WarrantyLookup, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, database.Validationf("warranty code is required")
	}
	return store.FindWarrantyByCode(ctx, s.db, code)
}

package models

import "time"

type DurationUnit string

const (
	DurationHours  DurationUnit = "hours"
	DurationDays   DurationUnit = "days"
	DurationMonths DurationUnit = "months"
	DurationYears  DurationUnit = "years"
)

func (u DurationUnit) Valid() bool {
	switch u {
	case DurationHours, DurationDays, DurationMonths, DurationYears:
		return true
	}
	return false
}

type WarrantyPlan struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	WarrantyType string       `json:"warranty_type"`
	Duration     int          `json:"duration"`
	DurationUnit DurationUnit `json:"duration_unit"`
	Coverage     string       `json:"coverage"`
	Terms        string       `json:"terms"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (w *WarrantyPlan) ExpiryFrom(now time.Time) time.Time {
	return ExpiryFrom(w.DurationUnit, w.Duration, now)
}

// ExpiryFrom advances now by duration units. An unrecognized unit leaves now
// unchanged; that is not an error.
//
// Month and year arithmetic clamps to the last day of the target month, so
// Jan 31 + 1 month is Feb 28 (or 29), not Mar 3.
func ExpiryFrom(unit DurationUnit, duration int, now time.Time) time.Time {
	switch unit {
	case DurationHours:
		return now.Add(time.Duration(duration) * time.Hour)
	case DurationDays:
		return now.AddDate(0, 0, duration)
	case DurationMonths:
		return addMonthsClamped(now, duration)
	case DurationYears:
		return addMonthsClamped(now, 12*duration)
	default:
		return now
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// WarrantyCoverage is one assigned plan as seen by a warranty code lookup.
type WarrantyCoverage struct {
	WarrantyPlanID int64        `json:"warranty_plan_id"`
	Name           string       `json:"name"`
	Duration       int          `json:"duration"`
	DurationUnit   DurationUnit `json:"duration_unit"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

type WarrantyLookup struct {
	Code       string             `json:"code"`
	OrderID    int64              `json:"order_id"`
	ProductID  int64              `json:"product_id"`
	Warranties []WarrantyCoverage `json:"warranties"`
}

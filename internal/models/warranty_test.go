package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryFrom(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		unit     DurationUnit
		duration int
		want     time.Time
	}{
		{"years", DurationYears, 1, time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)},
		{"months", DurationMonths, 18, time.Date(2025, 11, 10, 8, 30, 0, 0, time.UTC)},
		{"days", DurationDays, 30, time.Date(2024, 6, 9, 8, 30, 0, 0, time.UTC)},
		{"hours", DurationHours, 48, time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC)},
		{"invalid unit", DurationUnit("invalid-unit"), 1, start},
		{"localized label", DurationUnit("năm"), 2, start},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpiryFrom(tt.unit, tt.duration, start))
		})
	}
}

func TestExpiryFromClampsMonthEnd(t *testing.T) {
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), ExpiryFrom(DurationMonths, 1, jan31))

	leapDay := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC), ExpiryFrom(DurationYears, 1, leapDay))
}

func TestDurationUnitValid(t *testing.T) {
	assert.True(t, DurationDays.Valid())
	assert.False(t, DurationUnit("tháng").Valid())
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// Error kinds. Every error returned by the store and service layers that is
// the caller's concern wraps exactly one of these.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrConflict              = errors.New("conflict")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrWarrantyPlanNotFound = fmt.Errorf("warranty plan %w", ErrNotFound)
	ErrWarrantyCodeNotFound = fmt.Errorf("warranty code %w", ErrNotFound)
	ErrCartNotFound         = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound     = fmt.Errorf("cart item %w", ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", ErrNotFound)

	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrValidation)
	ErrEmptyCart         = fmt.Errorf("cart is empty: %w", ErrValidation)

	ErrOptimisticLockFailed = fmt.Errorf("optimistic lock failed: %w", ErrConflict)
	ErrLockTimeout          = fmt.Errorf("lock timeout: %w", ErrConflict)
)

// Validationf builds an ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/safar/storefront/internal/database"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// validateRequest checks req against its struct tags and reports every
// failing field as a single ErrValidation.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return database.Validationf("%v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return database.Validationf("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "phone":
		return fmt.Sprintf("%s must be 10 to 15 digits", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func requireNonNegative(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return database.Validationf("%s must not be negative", name)
	}
	return nil
}

// requireAmount accepts non-negative values that fit the two decimal places
// money columns are stored with.
func requireAmount(name string, d decimal.Decimal) error {
	if err := requireNonNegative(name, d); err != nil {
		return err
	}
	if !d.Equal(d.Round(2)) {
		return database.Validationf("%s must have at most 2 decimal places", name)
	}
	return nil
}

package models

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

// MoneyScale is the number of decimal places NUMERIC(19,4) amount columns keep.
const MoneyScale = 4

// FitsMoneyScale reports whether d is stored without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Decimals validate by sign so gte=0 rejects negative amounts.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.Sign()
	}, decimal.Decimal{})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.Time
	}, Date{})

	// Prices are checked at struct level because the decimal type func above
	// reduces field-level tags to the sign.
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(Product)
		if !FitsMoneyScale(p.UnitPrice) {
			sl.ReportError(p.UnitPrice, "unit_price", "UnitPrice", "money_scale", strconv.Itoa(MoneyScale))
		}
	}, Product{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		line := sl.Current().Interface().(DraftLine)
		if line.UnitPrice != nil && !FitsMoneyScale(*line.UnitPrice) {
			sl.ReportError(*line.UnitPrice, "unit_price", "UnitPrice", "money_scale", strconv.Itoa(MoneyScale))
		}
	}, DraftLine{})

	return v
}

// Validate checks a record's struct tags and returns the first problem as an
// *apperrors.ValidationError.
func Validate(record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}

	fe := fieldErrs[0]
	return apperrors.NewValidationError(fieldPath(fe), message(fe))
}

// fieldPath drops the root struct name: "OrderDraft.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must not be negative"
	case "money_scale":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

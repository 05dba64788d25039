package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

func TestValidate_Country(t *testing.T) {
	require.NoError(t, Validate(&Country{Name: "Germany"}))

	err := Validate(&Country{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, "is required", vErr.Message)
}

func TestValidate_MissingForeignKey(t *testing.T) {
	err := Validate(&City{Name: "Berlin"})

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "country_id", vErr.Field)
}

func TestValidate_NegativeUnitPrice(t *testing.T) {
	p := &Product{Name: "Widget", SupplierID: 1, UnitPrice: decimal.RequireFromString("-0.01")}

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, Validate(p), &vErr)
	assert.Equal(t, "unit_price", vErr.Field)
	assert.Equal(t, "must not be negative", vErr.Message)

	p.UnitPrice = decimal.Zero
	assert.NoError(t, Validate(p))
}

func TestValidate_UnitPriceScale(t *testing.T) {
	p := &Product{Name: "Widget", SupplierID: 1, UnitPrice: decimal.RequireFromString("9.99999")}

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, Validate(p), &vErr)
	assert.Equal(t, "unit_price", vErr.Field)
	assert.Equal(t, "must have at most 4 decimal places", vErr.Message)

	p.UnitPrice = decimal.RequireFromString("9.9999")
	assert.NoError(t, Validate(p))
}

func TestFitsMoneyScale(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"31.23", true},
		{"0.0001", true},
		{"12.500000", true},
		{"0.00005", false},
		{"-0.00001", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FitsMoneyScale(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestValidate_OrderDraft(t *testing.T) {
	price := decimal.RequireFromString("9.99")
	negative := decimal.RequireFromString("-1")
	subScale := decimal.RequireFromString("0.00005")
	trailingZeros := decimal.RequireFromString("9.990000")

	tests := []struct {
		name      string
		draft     *OrderDraft
		wantField string
	}{
		{
			name:  "valid with empty order number",
			draft: &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, UnitPrice: &price, Quantity: 3}}},
		},
		{
			name:  "zero quantity is structurally valid",
			draft: &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, Quantity: 0}}},
		},
		{
			name:      "missing date",
			draft:     &OrderDraft{CustomerID: 1},
			wantField: "order_date",
		},
		{
			name:      "missing customer",
			draft:     &OrderDraft{OrderDate: NewDate(2024, 1, 1)},
			wantField: "customer_id",
		},
		{
			name:      "negative quantity",
			draft:     &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, Quantity: -1}}},
			wantField: "items[0].quantity",
		},
		{
			name:      "negative explicit price",
			draft:     &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, UnitPrice: &negative, Quantity: 1}}},
			wantField: "items[0].unit_price",
		},
		{
			name:      "price finer than storage scale",
			draft:     &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, UnitPrice: &price, Quantity: 1}, {ProductID: 2, UnitPrice: &subScale, Quantity: 3}}},
			wantField: "items[1].unit_price",
		},
		{
			name:  "trailing zeros beyond scale are exact",
			draft: &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{ProductID: 1, UnitPrice: &trailingZeros, Quantity: 1}}},
		},
		{
			name:      "line without product",
			draft:     &OrderDraft{OrderDate: NewDate(2024, 1, 1), CustomerID: 1, Lines: []DraftLine{{Quantity: 1}}},
			wantField: "items[0].product_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.draft)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

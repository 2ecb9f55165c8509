package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Description: "design", Quantity: 10, UnitPrice: 80},
			{Description: "hosting", Quantity: 1, UnitPrice: 25},
		},
		TaxRate: 20,
	}

	subtotal, tax, total := Totals(inv)
	assert.Equal(t, 825.0, subtotal)
	assert.Equal(t, 165.0, tax)
	assert.Equal(t, 990.0, total)
}

func TestTotals_IgnoresNonPositiveLines(t *testing.T) {
	inv := Invoice{
		Items: []LineItem{
			{Quantity: -1, UnitPrice: 50},
			{Quantity: 2, UnitPrice: 0},
			{Quantity: 3, UnitPrice: 10},
		},
	}

	subtotal, tax, total := Totals(inv)
	assert.Equal(t, 30.0, subtotal)
	assert.Equal(t, 0.0, tax)
	assert.Equal(t, 30.0, total)
}

func TestTotals_ClampsTaxRate(t *testing.T) {
	inv := Invoice{
		Items:   []LineItem{{Quantity: 1, UnitPrice: 100}},
		TaxRate: 250,
	}
	_, tax, _ := Totals(inv)
	assert.Equal(t, 100.0, tax)

	inv.TaxRate = -5
	_, tax, _ = Totals(inv)
	assert.Equal(t, 0.0, tax)
}

func TestNormalizeCurrency(t *testing.T) {
	got, err := NormalizeCurrency("eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", got)

	got, err = NormalizeCurrency("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, got)

	_, err = NormalizeCurrency("DOUBLOONS")
	assert.Error(t, err)
}

func TestForm_DropsIdentity(t *testing.T) {
	inv := Invoice{
		ID:        "inv-1",
		Version:   CurrentInvoiceVersion,
		Number:    "INV-0001",
		Name:      "Swift Otter 42",
		Items:     []LineItem{{ID: "li-1", Description: "work", Quantity: 1, UnitPrice: 10}},
		Currency:  "USD",
		Status:    "draft",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	form := inv.Form()
	assert.Equal(t, inv.Number, form.Number)
	assert.Equal(t, inv.Name, form.Name)
	assert.Equal(t, inv.Items, form.Items)
	assert.Equal(t, inv.Status, form.Status)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coffee() Product {
	p := NewProduct("Coffee", 250, "Beverages")
	p.ID = 6
	p.Quantity = 100
	return p
}

func assertTotals(t *testing.T, tx *Transaction) {
	t.Helper()
	var subtotal int64
	for _, it := range tx.Items {
		assert.Equal(t, it.UnitPrice*int64(it.Quantity), it.TotalPrice)
		subtotal += it.TotalPrice
	}
	assert.Equal(t, subtotal, tx.Subtotal)
	assert.Equal(t, ComputeTax(tx.Subtotal, tx.TaxRate), tx.Tax)
	assert.Equal(t, tx.Subtotal+tx.Tax, tx.Total)
}

func TestTransaction_AddItem(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 2)

	require.Len(t, tx.Items, 1)
	assert.Equal(t, int64(500), tx.Subtotal)
	assert.Equal(t, int64(40), tx.Tax)
	assert.Equal(t, int64(540), tx.Total)
	assertTotals(t, tx)
}

func TestTransaction_AddItemMergesSameProduct(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 2)
	tx.AddItem(coffee(), 3)

	require.Len(t, tx.Items, 1)
	assert.Equal(t, 5, tx.Items[0].Quantity)
	assert.Equal(t, int64(1250), tx.Items[0].TotalPrice)
	assert.Equal(t, 5, tx.ItemCount())
	assertTotals(t, tx)
}

func TestTransaction_AddItemIgnoresNonPositiveQuantity(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 0)
	tx.AddItem(coffee(), -1)

	assert.True(t, tx.IsEmpty())
	assert.Equal(t, int64(0), tx.Total)
}

func TestTransaction_UnitPriceIsSnapshot(t *testing.T) {
	p := coffee()
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(p, 1)

	p.Price = 999
	tx.AddItem(p, 1)

	require.Len(t, tx.Items, 1)
	assert.Equal(t, int64(250), tx.Items[0].UnitPrice)
	assert.Equal(t, int64(500), tx.Subtotal)
}

func TestTransaction_UpdateItemQuantity(t *testing.T) {
	sandwich := NewProduct("Sandwich", 599, "Food")
	sandwich.ID = 2

	tests := []struct {
		name      string
		qty       int
		wantLines int
		wantSub   int64
	}{
		{"increase", 4, 2, 250 + 4*599},
		{"zero removes", 0, 1, 250},
		{"negative removes", -3, 1, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := NewTransaction(DefaultTaxRate)
			tx.AddItem(coffee(), 1)
			tx.AddItem(sandwich, 1)

			tx.UpdateItemQuantity(sandwich.ID, tt.qty)

			assert.Len(t, tx.Items, tt.wantLines)
			assert.Equal(t, tt.wantSub, tx.Subtotal)
			assertTotals(t, tx)
		})
	}
}

func TestTransaction_RemoveItem(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 1)
	tx.RemoveItem(coffee().ID)

	assert.True(t, tx.IsEmpty())
	assert.Equal(t, int64(0), tx.Subtotal)
	assert.Equal(t, int64(0), tx.Total)
}

func TestTransaction_SetTaxRate(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 4)
	tx.SetTaxRate(0.1)

	assert.Equal(t, int64(100), tx.Tax)
	assert.Equal(t, int64(1100), tx.Total)
}

func TestComputeTax_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		subtotal int64
		rate     float64
		want     int64
	}{
		{500, 0.08, 40},
		{1, 0.5, 1},     // 0.5 rounds up
		{3, 0.5, 2},     // 1.5 rounds up
		{199, 0.08, 16}, // 15.92
		{1250, 0.1, 125},
		{6, 0.0625, 0}, // 0.375
		{8, 0.0625, 1}, // 0.5 exactly
		{0, 0.08, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeTax(tt.subtotal, tt.rate), "subtotal=%d rate=%v", tt.subtotal, tt.rate)
	}
}

func TestTransaction_CloneIsDeep(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	tx.AddItem(coffee(), 1)

	c := tx.Clone()
	c.Items[0].Quantity = 50
	c.AddItem(NewProduct("Tea", 100, "Beverages"), 1)

	assert.Equal(t, 1, tx.Items[0].Quantity)
	assert.Len(t, tx.Items, 1)
	assert.True(t, tx.Equal(c))
}

func TestTransaction_PaymentDefaultsToCash(t *testing.T) {
	tx := NewTransaction(DefaultTaxRate)
	assert.Equal(t, "Cash", tx.Payment())

	tx.PaymentMethod = "Card"
	assert.Equal(t, "Card", tx.Payment())
}

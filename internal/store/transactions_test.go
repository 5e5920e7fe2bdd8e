package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/testutil"
)

func TestScenario_CoffeeSale(t *testing.T) {
	s, clock := createTestStore(t)

	coffee := s.AddProduct(model.Product{
		Name:          "Coffee",
		Price:         250,
		Category:      "Beverages",
		Quantity:      100,
		MinStockLevel: model.DefaultMinStockLevel,
		Active:        true,
	})
	require.Equal(t, 6, coffee.ID)

	tx, err := s.AddTransaction(saleOf(line{coffee, 2}))
	require.NoError(t, err)

	assert.Equal(t, 1, tx.ID)
	assert.Equal(t, int64(500), tx.Subtotal)
	assert.Equal(t, int64(40), tx.Tax)
	assert.Equal(t, int64(540), tx.Total)
	assert.True(t, tx.Completed)
	assert.True(t, tx.Timestamp.Equal(clock.Peek()))

	after, ok := s.ProductByID(coffee.ID)
	require.True(t, ok)
	assert.Equal(t, 98, after.Quantity)
}

func TestAddTransaction_AssignsSequentialIDs(t *testing.T) {
	s, _ := createTestStore(t)
	p := s.Products()[0]

	for want := 1; want <= 3; want++ {
		tx := saleOf(line{p, 1})
		tx.ID = 77 // ignored
		got, err := s.AddTransaction(tx)
		require.NoError(t, err)
		assert.Equal(t, want, got.ID)
	}
	assert.Equal(t, 4, s.NextTransactionID())
}

func TestAddTransaction_Nil(t *testing.T) {
	s, _ := createTestStore(t)
	_, err := s.AddTransaction(nil)
	assert.ErrorIs(t, err, ErrNilTransaction)
	assert.False(t, s.Dirty())
}

func TestAddTransaction_DoesNotRetainCallerValue(t *testing.T) {
	s, _ := createTestStore(t)
	p := s.Products()[0]
	tx := saleOf(line{p, 1})

	stored, err := s.AddTransaction(tx)
	require.NoError(t, err)

	tx.AddItem(p, 10)
	stored.Items[0].Quantity = 99

	got, ok := s.TransactionByID(stored.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, p.Price, got.Subtotal)
}

func TestAddTransaction_UnknownProductLeavesStockAlone(t *testing.T) {
	s, _ := createTestStore(t)
	before := s.Products()

	ghost := model.Product{ID: 999, Name: "Ghost", Price: 100}
	_, err := s.AddTransaction(saleOf(line{ghost, 1}))
	require.NoError(t, err)

	assert.Equal(t, before, s.Products())
}

func TestTransactionsBetween(t *testing.T) {
	s, clock := createTestStore(t)
	p := s.Products()[0]

	var stamps []time.Time
	for i := 0; i < 4; i++ {
		stamps = append(stamps, clock.Peek())
		_, err := s.AddTransaction(saleOf(line{p, 1}))
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}

	ids := func(txs []*model.Transaction) []int {
		out := []int{}
		for _, tx := range txs {
			out = append(out, tx.ID)
		}
		return out
	}

	assert.Equal(t, []int{4, 3, 2, 1}, ids(s.TransactionsBetween(time.Time{}, time.Time{})))
	assert.Equal(t, []int{3, 2}, ids(s.TransactionsBetween(stamps[1], stamps[2])), "bounds are inclusive")
	assert.Equal(t, []int{4, 3}, ids(s.TransactionsBetween(stamps[2], time.Time{})))
	assert.Equal(t, []int{1}, ids(s.TransactionsBetween(time.Time{}, stamps[0])))
	assert.Empty(t, s.TransactionsBetween(stamps[3].Add(time.Second), time.Time{}))
}

func TestTransactions_ReturnsDefensiveCopies(t *testing.T) {
	s, _ := createTestStore(t)
	_, err := s.AddTransaction(saleOf(line{s.Products()[0], 1}))
	require.NoError(t, err)

	got := s.Transactions()
	got[0].Total = 0
	got[0].Items[0].Quantity = 42

	fresh := s.Transactions()
	assert.Equal(t, int64(270), fresh[0].Total)
	assert.Equal(t, 1, fresh[0].Items[0].Quantity)
}

func TestDerivedTotalsHoldForStoredTransactions(t *testing.T) {
	s, _ := createTestStore(t)
	products := s.Products()

	tx := saleOf(line{products[0], 3}, line{products[1], 1}, line{products[4], 7})
	// Lines assigned directly bypass the mutators; the store recomputes.
	tx.Items = append(tx.Items, model.TransactionItem{Product: products[2], Quantity: 2, UnitPrice: 350})
	_, err := s.AddTransaction(tx)
	require.NoError(t, err)

	for _, stored := range s.Transactions() {
		var sum int64
		for _, it := range stored.Items {
			assert.Equal(t, it.UnitPrice*int64(it.Quantity), it.TotalPrice)
			sum += it.TotalPrice
		}
		assert.Equal(t, sum, stored.Subtotal)
		assert.Equal(t, stored.Subtotal+model.ComputeTax(stored.Subtotal, stored.TaxRate), stored.Total)
	}
}

func TestSettings_SetAndGet(t *testing.T) {
	s, _ := createTestStore(t)

	s.SetSetting(model.SettingTaxRate, model.DefaultTaxRate)
	assert.False(t, s.Dirty(), "same value is not a change")

	s.SetSetting(model.SettingUIScale, 2)
	v, ok := s.Setting(model.SettingUIScale)
	require.True(t, ok)
	assert.Equal(t, float64(2), v)
	assert.True(t, s.Dirty())

	s.SetSettings(model.Settings{model.SettingTaxRate: 0.1, "darkMode": true})
	assert.Equal(t, 0.1, s.TaxRate())

	got := s.Settings()
	got["darkMode"] = false
	v, _ = s.Setting("darkMode")
	assert.Equal(t, true, v)

	_, ok = s.Setting("missing")
	assert.False(t, ok)
}

func TestAddTransaction_UsesStoreClock(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s := openTestStore(t, t.TempDir(), clock)
	s.Load()

	tx, err := s.AddTransaction(saleOf(line{s.Products()[0], 1}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), tx.Timestamp)
}

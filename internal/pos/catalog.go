package pos

import (
	"time"

	"github.com/roach88/gpos/internal/model"
)

// Products returns every product.
func (m *Manager) Products() []model.Product { return m.store.Products() }

// Product returns the product with id.
func (m *Manager) Product(id int) (model.Product, bool) { return m.store.ProductByID(id) }

// ProductByBarcode returns the product with the given barcode.
func (m *Manager) ProductByBarcode(code string) (model.Product, bool) {
	return m.store.ProductByBarcode(code)
}

// SearchProducts matches term against id, name, description and barcode.
func (m *Manager) SearchProducts(term string) []model.Product { return m.store.SearchProducts(term) }

// ProductsByCategory filters by exact category; blank returns everything.
func (m *Manager) ProductsByCategory(category string) []model.Product {
	return m.store.ProductsByCategory(category)
}

// Categories lists the distinct product categories, sorted.
func (m *Manager) Categories() []string { return m.store.Categories() }

// LowStockProducts returns products at or below their minimum stock level.
func (m *Manager) LowStockProducts() []model.Product { return m.store.LowStockProducts() }

// AddProduct stores p, assigning an id when p.ID is zero.
func (m *Manager) AddProduct(p model.Product) model.Product { return m.store.AddProduct(p) }

// UpdateProduct replaces the product with the same id.
func (m *Manager) UpdateProduct(p model.Product) bool { return m.store.UpdateProduct(p) }

// DeleteProduct removes the product with id.
func (m *Manager) DeleteProduct(id int) bool { return m.store.DeleteProduct(id) }

// NextProductID returns the id the next auto-numbered product will get.
func (m *Manager) NextProductID() int { return m.store.NextProductID() }

// NewSale starts an open transaction at the configured tax rate.
func (m *Manager) NewSale() *model.Transaction {
	return model.NewTransaction(m.store.TaxRate())
}

// CompleteSale records tx: it gets the next id and the current time,
// and stock is decremented for every line.
func (m *Manager) CompleteSale(tx *model.Transaction) (*model.Transaction, error) {
	return m.store.AddTransaction(tx)
}

// Transactions returns every transaction in recording order.
func (m *Manager) Transactions() []*model.Transaction { return m.store.Transactions() }

// Transaction returns the transaction with id.
func (m *Manager) Transaction(id int) (*model.Transaction, bool) {
	return m.store.TransactionByID(id)
}

// TransactionsBetween returns transactions in [start, end], newest first.
// A zero bound is open.
func (m *Manager) TransactionsBetween(start, end time.Time) []*model.Transaction {
	return m.store.TransactionsBetween(start, end)
}

// TotalSales sums every transaction total, in cents.
func (m *Manager) TotalSales() int64 { return m.store.TotalSales() }

// SalesForDate sums totals on day's calendar date.
func (m *Manager) SalesForDate(day time.Time) int64 { return m.store.SalesForDate(day) }

// SalesForDateRange sums totals in [start, end].
func (m *Manager) SalesForDateRange(start, end time.Time) int64 {
	return m.store.SalesForDateRange(start, end)
}

// SalesByCategory sums line totals per product category.
func (m *Manager) SalesByCategory() map[string]int64 { return m.store.SalesByCategory() }

// InventoryValue is the total value of stock on hand, in cents.
func (m *Manager) InventoryValue() int64 { return m.store.InventoryValue() }

// Settings returns a copy of all settings.
func (m *Manager) Settings() model.Settings { return m.store.Settings() }

// Setting returns one setting.
func (m *Manager) Setting(key string) (any, bool) { return m.store.Setting(key) }

// SetSetting stores one setting.
func (m *Manager) SetSetting(key string, value any) { m.store.SetSetting(key, value) }

// SetSettings stores several settings at once.
func (m *Manager) SetSettings(values model.Settings) { m.store.SetSettings(values) }

// TaxRate returns the effective tax rate.
func (m *Manager) TaxRate() float64 { return m.store.TaxRate() }

package model

import "strings"

// DefaultCategory is reported for products whose category is blank.
const DefaultCategory = "All"

// DefaultMinStockLevel is the low-stock threshold for new products.
const DefaultMinStockLevel = 5

// Product is a catalog entry. Price is in cents.
//
// Identity is the ID alone (see Equal). The store assigns an ID when a
// product is added with ID zero.
type Product struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Price         int64  `json:"price"`
	Category      string `json:"category"`
	Quantity      int    `json:"quantity"`
	MinStockLevel int    `json:"min_stock_level"`
	Barcode       string `json:"barcode,omitempty"`
	Active        bool   `json:"active"`
}

// NewProduct returns an active product with the default stock threshold.
func NewProduct(name string, price int64, category string) Product {
	return Product{
		Name:          name,
		Price:         price,
		Category:      category,
		MinStockLevel: DefaultMinStockLevel,
		Active:        true,
	}
}

// Equal reports whether p and other identify the same product.
func (p Product) Equal(other Product) bool {
	return p.ID == other.ID
}

// EffectiveCategory returns the category, or DefaultCategory when blank.
func (p Product) EffectiveCategory() string {
	if p.Category == "" {
		return DefaultCategory
	}
	return p.Category
}

// IsLowStock reports whether quantity is at or below the minimum level.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// HasBarcode reports whether a non-blank barcode is set.
func (p Product) HasBarcode() bool {
	return strings.TrimSpace(p.Barcode) != ""
}

// TotalValue is the stock value in cents (price × quantity).
func (p Product) TotalValue() int64 {
	return p.Price * int64(p.Quantity)
}

package store

import "github.com/roach88/gpos/internal/model"

// SeedNextProductID is the product id counter after seeding the default
// catalog.
const SeedNextProductID = 6

// SeedProducts returns the first-run catalog.
func SeedProducts() []model.Product {
	seed := []struct {
		id          int
		name        string
		description string
		price       int64
		category    string
		quantity    int
		minStock    int
		barcode     string
	}{
		{1, "Coffee", "Fresh brewed coffee", 250, "Beverages", 100, 10, "COF001"},
		{2, "Sandwich", "Ham and cheese sandwich", 599, "Food", 50, 5, "SAN001"},
		{3, "Notebook", "Spiral bound notebook", 350, "Stationery", 25, 3, "NOT001"},
		{4, "Water Bottle", "500ml mineral water", 150, "Beverages", 200, 20, "WAT001"},
		{5, "Chocolate Bar", "Milk chocolate bar", 199, "Snacks", 75, 10, "CHO001"},
	}

	products := make([]model.Product, 0, len(seed))
	for _, r := range seed {
		p := model.NewProduct(r.name, r.price, r.category)
		p.ID = r.id
		p.Description = r.description
		p.Quantity = r.quantity
		p.MinStockLevel = r.minStock
		p.Barcode = r.barcode
		products = append(products, p)
	}
	return products
}

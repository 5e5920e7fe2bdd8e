package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpos/internal/model"
)

func TestAddProduct_AssignsMonotonicIDs(t *testing.T) {
	s, _ := createTestStore(t)
	k := s.NextProductID() - 1

	for i := 1; i <= 4; i++ {
		p := s.AddProduct(model.NewProduct("Item", 100, "Bulk"))
		assert.Equal(t, k+i, p.ID)
	}
	assert.True(t, s.Dirty())
}

func TestAddProduct_ExplicitIDAdvancesCounter(t *testing.T) {
	s, _ := createTestStore(t)

	p := model.NewProduct("Imported", 100, "Bulk")
	p.ID = 50
	assert.Equal(t, 50, s.AddProduct(p).ID)
	assert.Equal(t, 51, s.NextProductID())

	low := model.NewProduct("Low id", 100, "Bulk")
	low.ID = 2
	s.AddProduct(low)
	assert.Equal(t, 51, s.NextProductID(), "lower explicit ids leave the counter alone")
}

func TestUpdateProduct(t *testing.T) {
	s, _ := createTestStore(t)

	p, ok := s.ProductByID(1)
	require.True(t, ok)
	p.Price = 275
	assert.True(t, s.UpdateProduct(p))

	got, _ := s.ProductByID(1)
	assert.Equal(t, int64(275), got.Price)

	assert.False(t, s.UpdateProduct(model.Product{ID: 999, Name: "Ghost"}))
}

func TestDeleteProduct(t *testing.T) {
	s, _ := createTestStore(t)

	assert.True(t, s.DeleteProduct(3))
	_, ok := s.ProductByID(3)
	assert.False(t, ok)
	assert.Len(t, s.Products(), 4)

	assert.False(t, s.DeleteProduct(3))
}

func TestDeleteProduct_UnknownIDDoesNotDirty(t *testing.T) {
	s, _ := createTestStore(t)
	assert.False(t, s.DeleteProduct(404))
	assert.False(t, s.Dirty())
}

func TestProducts_ReturnsDefensiveCopy(t *testing.T) {
	s, _ := createTestStore(t)

	got := s.Products()
	got[0].Name = "Mutated"
	got = append(got, model.Product{ID: 99})

	fresh := s.Products()
	assert.Equal(t, "Coffee", fresh[0].Name)
	assert.Len(t, fresh, 5)
}

func TestProductByBarcode(t *testing.T) {
	s, _ := createTestStore(t)

	p, ok := s.ProductByBarcode("WAT001")
	require.True(t, ok)
	assert.Equal(t, "Water Bottle", p.Name)

	_, ok = s.ProductByBarcode("NOPE")
	assert.False(t, ok)
}

func TestSearchProducts(t *testing.T) {
	s, _ := createTestStore(t)
	s.AddProduct(model.Product{Name: "Café au lait", Category: "Beverages", Active: true})

	names := func(ps []model.Product) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	tests := []struct {
		term string
		want []string
	}{
		{"coffee", []string{"Coffee"}},
		{"COFFEE", []string{"Coffee"}},
		{"mineral", []string{"Water Bottle"}},       // description
		{"san001", []string{"Sandwich"}},            // barcode
		{"4", []string{"Water Bottle"}},             // id
		{"CAFÉ", []string{"Café au lait"}},          // unicode folding
		{"cafe\u0301", []string{"Café au lait"}},   // decomposed accent
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, names(s.SearchProducts(tt.term)))
		})
	}

	assert.Len(t, s.SearchProducts("   "), 6, "blank term matches everything")
}

func TestProductsByCategoryAndCategories(t *testing.T) {
	s, _ := createTestStore(t)
	s.AddProduct(model.Product{Name: "Loose", Active: true})

	bev := s.ProductsByCategory("Beverages")
	require.Len(t, bev, 2)
	assert.Equal(t, "Coffee", bev[0].Name)
	assert.Equal(t, "Water Bottle", bev[1].Name)

	assert.Len(t, s.ProductsByCategory(""), 6)
	assert.Empty(t, s.ProductsByCategory("Hardware"))

	assert.Equal(t, []string{"Beverages", "Food", "Snacks", "Stationery"}, s.Categories())
}

func TestLowStockProducts(t *testing.T) {
	s, _ := createTestStore(t)
	s.Reset(model.DefaultSettings())

	s.AddProduct(model.Product{Name: "Plenty", Quantity: 10, MinStockLevel: 5})
	s.AddProduct(model.Product{Name: "Scarce", Quantity: 3, MinStockLevel: 5})
	s.AddProduct(model.Product{Name: "Edge", Quantity: 5, MinStockLevel: 5})

	low := s.LowStockProducts()
	require.Len(t, low, 2)
	assert.Equal(t, "Scarce", low[0].Name)
	assert.Equal(t, "Edge", low[1].Name)
}

func TestInventoryValue(t *testing.T) {
	s, _ := createTestStore(t)
	// 250*100 + 599*50 + 350*25 + 150*200 + 199*75
	assert.Equal(t, int64(25000+29950+8750+30000+14925), s.InventoryValue())
}

package store

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/gpos/internal/model"
)

// AddProduct appends p and returns it as stored.
//
// A zero ID is replaced with the next id from the counter. An explicit ID at
// or beyond the counter advances the counter past it. Duplicate explicit ids
// are not rejected here; the integrity checker renumbers them.
func (s *Store) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.state.NextProductID
		s.state.NextProductID++
	} else if p.ID >= s.state.NextProductID {
		s.state.NextProductID = p.ID + 1
	}
	s.state.Products = append(s.state.Products, p)
	s.markDirtyLocked()
	return p
}

// UpdateProduct replaces the product with p.ID. Reports whether one existed.
func (s *Store) UpdateProduct(p model.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndexLocked(p.ID)
	if i < 0 {
		return false
	}
	s.state.Products[i] = p
	s.markDirtyLocked()
	return true
}

// DeleteProduct removes every product with id. Reports whether any existed.
func (s *Store) DeleteProduct(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Products[:0]
	for _, p := range s.state.Products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(s.state.Products)
	s.state.Products = kept
	if removed {
		s.markDirtyLocked()
	}
	return removed
}

// Products returns a copy of the catalog in insertion order.
func (s *Store) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProducts(s.state.Products)
}

// ProductByID returns the first product with id.
func (s *Store) ProductByID(id int) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.productIndexLocked(id); i >= 0 {
		return s.state.Products[i], true
	}
	return model.Product{}, false
}

// ProductByBarcode returns the first product whose barcode equals code.
func (s *Store) ProductByBarcode(code string) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.Products {
		if p.Barcode == code {
			return p, true
		}
	}
	return model.Product{}, false
}

// SearchProducts returns products whose id, name, description or barcode
// contains term, ignoring case. A blank term matches everything.
//
// Matching uses Unicode case folding over NFC-normalized text, so "CAFÉ"
// finds "café" regardless of how the accent was composed.
func (s *Store) SearchProducts(term string) []model.Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Products()
	}
	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(term))
	matches := func(field string) bool {
		return field != "" && strings.Contains(fold.String(norm.NFC.String(field)), needle)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Product{}
	for _, p := range s.state.Products {
		if strings.Contains(strconv.Itoa(p.ID), needle) ||
			matches(p.Name) ||
			matches(p.Description) ||
			matches(p.Barcode) {
			out = append(out, p)
		}
	}
	return out
}

// ProductsByCategory returns products in category. A blank category
// matches everything.
func (s *Store) ProductsByCategory(category string) []model.Product {
	if category == "" {
		return s.Products()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Product{}
	for _, p := range s.state.Products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct non-blank categories, sorted.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	out := []string{}
	for _, p := range s.state.Products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// LowStockProducts returns products at or below their minimum stock level,
// ordered by id.
func (s *Store) LowStockProducts() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Product{}
	for _, p := range s.state.Products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InventoryValue is the total stock value in cents.
func (s *Store) InventoryValue() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, p := range s.state.Products {
		total += p.TotalValue()
	}
	return total
}

func (s *Store) productIndexLocked(id int) int {
	for i, p := range s.state.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

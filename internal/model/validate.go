package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProduct wraps every product validation failure.
var ErrInvalidProduct = errors.New("invalid product")

// Validate checks the fields an input boundary must reject. The store
// itself accepts any product; the integrity checker only repairs what a
// damaged file can contain.
func (p Product) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.ID < 0 {
		problems = append(problems, "id must not be negative")
	}
	if p.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if p.Quantity < 0 {
		problems = append(problems, "quantity must not be negative")
	}
	if p.MinStockLevel < 0 {
		problems = append(problems, "minimum stock level must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}

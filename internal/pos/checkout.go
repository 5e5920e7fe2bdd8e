package pos

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/gpos/internal/model"
)

// Checkout rejections.
var (
	ErrEmptySale           = errors.New("sale has no items")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrInactiveProduct     = errors.New("product is not for sale")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// SaleLine asks for quantity units of one product.
type SaleLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// SaleRequest is a sale as entered at the register.
type SaleRequest struct {
	Items         []SaleLine `json:"items"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	// AmountPaid in cents; nil means exact payment.
	AmountPaid *int64 `json:"amount_paid,omitempty"`
}

// Checkout validates req against the catalog and records the sale.
//
// Lines for the same product are merged. Every product must exist, be
// active and have enough stock for the merged quantity, and the payment
// must cover the total. Nothing is recorded when any check fails.
func (m *Manager) Checkout(req SaleRequest) (*model.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptySale
	}

	sale := m.NewSale()
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}
		p, ok := m.store.ProductByID(line.ProductID)
		if !ok {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrUnknownProduct)
		}
		if !p.Active {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrInactiveProduct)
		}
		sale.AddItem(p, line.Quantity)
	}

	for _, item := range sale.Items {
		if item.Quantity > item.Product.Quantity {
			return nil, fmt.Errorf("%s: %w: available %d, requested %d",
				item.Product.Name, ErrInsufficientStock, item.Product.Quantity, item.Quantity)
		}
	}

	if method := strings.TrimSpace(req.PaymentMethod); method != "" {
		sale.PaymentMethod = method
	}
	sale.CustomerName = strings.TrimSpace(req.CustomerName)
	sale.Notes = req.Notes

	sale.AmountPaid = sale.Total
	if req.AmountPaid != nil {
		if *req.AmountPaid < sale.Total {
			return nil, fmt.Errorf("%w: total %s, paid %s", ErrInsufficientPayment,
				model.FormatCents(sale.Total), model.FormatCents(*req.AmountPaid))
		}
		sale.AmountPaid = *req.AmountPaid
	}

	return m.store.AddTransaction(sale)
}

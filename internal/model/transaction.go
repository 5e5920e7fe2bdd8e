package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies to new transactions and to missing settings.
const DefaultTaxRate = 0.08

// DefaultPaymentMethod is reported when a transaction has none recorded.
const DefaultPaymentMethod = "Cash"

// TransactionItem is one line of a transaction.
//
// Product is a snapshot taken when the line was added. UnitPrice is captured
// from that snapshot, so later catalog price changes never alter the line.
type TransactionItem struct {
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
	UnitPrice  int64   `json:"unit_price"`
	TotalPrice int64   `json:"total_price"`
}

// NewTransactionItem snapshots p and prices qty units at p.Price.
func NewTransactionItem(p Product, qty int) TransactionItem {
	item := TransactionItem{Product: p, Quantity: qty, UnitPrice: p.Price}
	item.TotalPrice = item.UnitPrice * int64(item.Quantity)
	return item
}

// ProductID returns the id of the snapshotted product.
func (it TransactionItem) ProductID() int {
	return it.Product.ID
}

// Transaction is a sale. Subtotal, Tax and Total are derived from Items and
// TaxRate and are recomputed by every mutator.
type Transaction struct {
	ID            int               `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Items         []TransactionItem `json:"items"`
	Subtotal      int64             `json:"subtotal"`
	Tax           int64             `json:"tax"`
	TaxRate       float64           `json:"tax_rate"`
	Total         int64             `json:"total"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	CustomerName  string            `json:"customer_name,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	AmountPaid    int64             `json:"amount_paid"`
	Completed     bool              `json:"completed"`
}

// NewTransaction returns an empty, open transaction at the given tax rate.
func NewTransaction(taxRate float64) *Transaction {
	return &Transaction{
		Items:   []TransactionItem{},
		TaxRate: taxRate,
	}
}

// Equal reports whether t and other identify the same transaction.
func (t *Transaction) Equal(other *Transaction) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// Payment returns the payment method, defaulting to DefaultPaymentMethod.
func (t *Transaction) Payment() string {
	if t.PaymentMethod == "" {
		return DefaultPaymentMethod
	}
	return t.PaymentMethod
}

// AddItem adds qty units of p. A line for the same product id absorbs the
// quantity instead of a second line being created. Non-positive quantities
// are ignored.
func (t *Transaction) AddItem(p Product, qty int) {
	if qty <= 0 {
		return
	}
	for i := range t.Items {
		if t.Items[i].ProductID() == p.ID {
			t.Items[i].setQuantity(t.Items[i].Quantity + qty)
			t.recalculate()
			return
		}
	}
	t.Items = append(t.Items, NewTransactionItem(p, qty))
	t.recalculate()
}

// RemoveItem drops the line for productID, if any.
func (t *Transaction) RemoveItem(productID int) {
	kept := t.Items[:0]
	for _, it := range t.Items {
		if it.ProductID() != productID {
			kept = append(kept, it)
		}
	}
	t.Items = kept
	t.recalculate()
}

// UpdateItemQuantity sets the quantity of the line for productID.
// A non-positive quantity removes the line.
func (t *Transaction) UpdateItemQuantity(productID, qty int) {
	for i := range t.Items {
		if t.Items[i].ProductID() != productID {
			continue
		}
		if qty <= 0 {
			t.RemoveItem(productID)
			return
		}
		t.Items[i].setQuantity(qty)
		t.recalculate()
		return
	}
}

// SetTaxRate changes the rate and recomputes tax and total.
func (t *Transaction) SetTaxRate(rate float64) {
	t.TaxRate = rate
	t.recalculate()
}

// Clear removes every line.
func (t *Transaction) Clear() {
	t.Items = t.Items[:0]
	t.recalculate()
}

// ItemCount is the number of units across all lines.
func (t *Transaction) ItemCount() int {
	n := 0
	for _, it := range t.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the transaction has no lines.
func (t *Transaction) IsEmpty() bool {
	return len(t.Items) == 0
}

// Change is the amount owed back to the customer (negative when underpaid).
func (t *Transaction) Change() int64 {
	return t.AmountPaid - t.Total
}

// Recalculate recomputes the derived totals from the current lines. Only
// needed after Items has been assigned directly.
func (t *Transaction) Recalculate() {
	for i := range t.Items {
		t.Items[i].TotalPrice = t.Items[i].UnitPrice * int64(t.Items[i].Quantity)
	}
	t.recalculate()
}

// Clone returns a deep copy. A nil item list stays nil.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.Items != nil {
		c.Items = make([]TransactionItem, len(t.Items))
		copy(c.Items, t.Items)
	}
	return &c
}

func (it *TransactionItem) setQuantity(qty int) {
	it.Quantity = qty
	it.TotalPrice = it.UnitPrice * int64(qty)
}

func (t *Transaction) recalculate() {
	var subtotal int64
	for _, it := range t.Items {
		subtotal += it.TotalPrice
	}
	t.Subtotal = subtotal
	t.Tax = ComputeTax(subtotal, t.TaxRate)
	t.Total = t.Subtotal + t.Tax
}

// ComputeTax returns subtotal × rate rounded half-up to the cent.
// The product is formed in decimal so 0.5-cent boundaries are exact.
// NaN and infinite rates yield zero tax.
func ComputeTax(subtotal int64, rate float64) int64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}

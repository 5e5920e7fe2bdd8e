package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpos/internal/model"
)

func paid(cents int64) *int64 { return &cents }

func TestCheckout_RecordsSale(t *testing.T) {
	m := openManager(t, testConfig(t))

	tx, err := m.Checkout(SaleRequest{
		Items: []SaleLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 5, Quantity: 2},
			{ProductID: 1, Quantity: 1},
		},
		PaymentMethod: "Card",
		CustomerName:  "  Dana ",
		AmountPaid:    paid(2000),
	})
	require.NoError(t, err)

	// Coffee lines merge: 2 x 250 + 2 x 199 = 898; tax round(71.84) = 72.
	require.Len(t, tx.Items, 2)
	assert.Equal(t, int64(898), tx.Subtotal)
	assert.Equal(t, int64(72), tx.Tax)
	assert.Equal(t, int64(970), tx.Total)
	assert.Equal(t, "Card", tx.PaymentMethod)
	assert.Equal(t, "Dana", tx.CustomerName)
	assert.Equal(t, int64(1030), tx.Change())

	coffee, _ := m.Product(1)
	assert.Equal(t, 98, coffee.Quantity)
}

func TestCheckout_DefaultsToExactCashPayment(t *testing.T) {
	m := openManager(t, testConfig(t))

	tx, err := m.Checkout(SaleRequest{Items: []SaleLine{{ProductID: 1, Quantity: 2}}})
	require.NoError(t, err)

	assert.Equal(t, model.DefaultPaymentMethod, tx.Payment())
	assert.Equal(t, tx.Total, tx.AmountPaid)
	assert.Zero(t, tx.Change())
}

func TestCheckout_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m *Manager)
		req     SaleRequest
		wantErr error
	}{
		{
			name:    "no items",
			req:     SaleRequest{},
			wantErr: ErrEmptySale,
		},
		{
			name:    "zero quantity",
			req:     SaleRequest{Items: []SaleLine{{ProductID: 1, Quantity: 0}}},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "unknown product",
			req:     SaleRequest{Items: []SaleLine{{ProductID: 99, Quantity: 1}}},
			wantErr: ErrUnknownProduct,
		},
		{
			name: "inactive product",
			setup: func(m *Manager) {
				p, _ := m.Product(2)
				p.Active = false
				m.UpdateProduct(p)
			},
			req:     SaleRequest{Items: []SaleLine{{ProductID: 2, Quantity: 1}}},
			wantErr: ErrInactiveProduct,
		},
		{
			name: "merged lines exceed stock",
			req: SaleRequest{Items: []SaleLine{
				{ProductID: 3, Quantity: 20},
				{ProductID: 3, Quantity: 6},
			}},
			wantErr: ErrInsufficientStock,
		},
		{
			name:    "underpaid",
			req:     SaleRequest{Items: []SaleLine{{ProductID: 1, Quantity: 2}}, AmountPaid: paid(539)},
			wantErr: ErrInsufficientPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := openManager(t, testConfig(t))
			if tt.setup != nil {
				tt.setup(m)
			}
			before := m.Products()

			_, err := m.Checkout(tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, m.Transactions())
			assert.Equal(t, before, m.Products())
		})
	}
}

package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/testutil"
)

// discardLogger keeps expected load/save failures out of test output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore opens a store in a temp dir and loads it (seeding defaults).
func createTestStore(t *testing.T) (*Store, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	s := openTestStore(t, t.TempDir(), clock)
	s.Load()
	return s, clock
}

// openTestStore opens a store at dir without loading it.
func openTestStore(t *testing.T, dir string, clock Clock) *Store {
	t.Helper()
	s, err := Open(dir, WithClock(clock), WithLogger(discardLogger()))
	require.NoError(t, err)
	return s
}

// saleOf builds an open transaction with one line per product.
func saleOf(lines ...line) *model.Transaction {
	tx := model.NewTransaction(model.DefaultTaxRate)
	for _, l := range lines {
		tx.AddItem(l.product, l.qty)
	}
	return tx
}

type line struct {
	product model.Product
	qty     int
}

package export

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// sampleSnapshot is two products and one sale of two coffees.
func sampleSnapshot() Snapshot {
	coffee := model.NewProduct("Coffee", 250, "Beverages")
	coffee.ID = 1
	coffee.Quantity = 100
	coffee.MinStockLevel = 10
	coffee.Barcode = "COF001"

	sandwich := model.NewProduct("Sandwich", 599, "Food")
	sandwich.ID = 2
	sandwich.Quantity = 50
	sandwich.Barcode = "SAN001"

	tx := model.NewTransaction(model.DefaultTaxRate)
	tx.AddItem(coffee, 2)
	tx.ID = 1
	tx.Timestamp = testutil.Epoch
	tx.AmountPaid = 1000
	tx.Completed = true

	return Snapshot{
		GeneratedAt:  testutil.Epoch,
		StoreName:    "GPOS-General",
		Currency:     "IDR",
		Products:     []model.Product{coffee, sandwich},
		Transactions: []*model.Transaction{tx},
		TotalSales:   tx.Total,
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"report.txt", FormatText, false},
		{"REPORT.TXT", FormatText, false},
		{"out/sales.xlsx", FormatWorkbook, false},
		{"snapshot.db", FormatSQLite, false},
		{"snapshot.sqlite", FormatSQLite, false},
		{"report.pdf", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteText_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSnapshot()))

	newGoldie(t).Assert(t, "text_report", buf.Bytes())
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Snapshot{GeneratedAt: testutil.Epoch}))

	out := buf.String()
	assert.Contains(t, out, "Total Products: 0\n")
	assert.Contains(t, out, "Total Transactions: 0\n")
	assert.Contains(t, out, "Total Sales: $0.00\n")
	assert.NotContains(t, out, "Store:")
}

func TestWriteStatistics_Golden(t *testing.T) {
	stats := Statistics{
		Products:          2,
		Transactions:      1,
		TotalSales:        540,
		InventoryValue:    54950,
		Backups:           2,
		LatestBackup:      "/backups/backup_20240315_093000",
		LatestBackupLabel: "2024-03-15 09:30:00",
		LatestBackupAt:    testutil.Epoch,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStatistics(&buf, stats))

	newGoldie(t).Assert(t, "statistics", buf.Bytes())
}

func TestWriteStatistics_PendingWithoutBackups(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatistics(&buf, Statistics{Pending: true}))

	assert.Contains(t, buf.String(), "Last Auto-Save: Pending\n")
	assert.Contains(t, buf.String(), "Available Backups: 0\n")
	assert.NotContains(t, buf.String(), "Latest Backup:")
}

func TestWriteFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")

	format, err := WriteFile(path, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== SUMMARY ===")
}

func TestWriteFile_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")

	_, err := WriteFile(path, sampleSnapshot())
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.NoFileExists(t, path)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleSnapshot()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetProducts, SheetTransactions, SheetSummary}, f.GetSheetList())

	products, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Name", products[0][1])
	assert.Equal(t, "Coffee", products[1][1])
	assert.Equal(t, "2.5", products[1][4])
	assert.Equal(t, "Sandwich", products[2][1])

	transactions, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "1", transactions[1][0])
	assert.Equal(t, "2024-03-15 09:30:00", transactions[1][1])
	assert.Equal(t, "5.4", transactions[1][6])
	assert.Equal(t, "4.6", transactions[1][10])

	total, err := f.GetCellValue(SheetSummary, "B6")
	require.NoError(t, err)
	assert.Equal(t, "5.4", total)
}

func TestWriteWorkbook_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	require.NoError(t, WriteWorkbook(path, sampleSnapshot()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	f.Close()
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, WriteSQLite(path, sampleSnapshot()))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	var products int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM products").Scan(&products))
	assert.Equal(t, 2, products)

	var total int64
	var payment string
	require.NoError(t, db.QueryRow(
		"SELECT total_cents, payment_method FROM transactions WHERE id = 1",
	).Scan(&total, &payment))
	assert.Equal(t, int64(540), total)
	assert.Equal(t, model.DefaultPaymentMethod, payment)

	var name string
	var qty int
	var lineTotal int64
	require.NoError(t, db.QueryRow(
		"SELECT product_name, quantity, total_cents FROM transaction_items WHERE transaction_id = 1 AND line = 1",
	).Scan(&name, &qty, &lineTotal))
	assert.Equal(t, "Coffee", name)
	assert.Equal(t, 2, qty)
	assert.Equal(t, int64(500), lineTotal)

	var sales string
	require.NoError(t, db.QueryRow("SELECT value FROM export_meta WHERE key = 'total_sales'").Scan(&sales))
	assert.Equal(t, "540", sales)
}

func TestWriteSQLite_OverwritesPreviousExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, WriteSQLite(path, sampleSnapshot()))

	snap := sampleSnapshot()
	snap.Products = snap.Products[:1]
	require.NoError(t, WriteSQLite(path, snap))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var products int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM products").Scan(&products))
	assert.Equal(t, 1, products)
}

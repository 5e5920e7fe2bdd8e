package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SheetProducts     = "Products"
	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
)

var (
	productHeader     = []any{"ID", "Name", "Description", "Category", "Price", "Stock", "Min Stock", "Barcode", "Active"}
	transactionHeader = []any{"ID", "Date", "Items", "Subtotal", "Tax Rate", "Tax", "Total", "Payment Method", "Customer", "Amount Paid", "Change"}
)

// WriteWorkbook writes snap as an XLSX workbook with Products, Transactions
// and Summary sheets. Money columns hold decimal currency units.
func WriteWorkbook(path string, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetProducts); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTransactions, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	if err := writeRow(f, SheetProducts, 1, productHeader); err != nil {
		return err
	}
	for i, p := range snap.Products {
		row := []any{
			p.ID, p.Name, p.Description, p.EffectiveCategory(), centsValue(p.Price),
			p.Quantity, p.MinStockLevel, p.Barcode, p.Active,
		}
		if err := writeRow(f, SheetProducts, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetTransactions, 1, transactionHeader); err != nil {
		return err
	}
	row := 2
	for _, tx := range snap.Transactions {
		if tx == nil {
			continue
		}
		cells := []any{
			tx.ID, tx.Timestamp.Format(TimestampLayout), tx.ItemCount(),
			centsValue(tx.Subtotal), tx.TaxRate, centsValue(tx.Tax), centsValue(tx.Total),
			tx.Payment(), tx.CustomerName, centsValue(tx.AmountPaid), centsValue(tx.Change()),
		}
		if err := writeRow(f, SheetTransactions, row, cells); err != nil {
			return err
		}
		row++
	}

	summary := [][]any{
		{"Store", snap.StoreName},
		{"Currency", snap.Currency},
		{"Export Date", snap.GeneratedAt.Format(TimestampLayout)},
		{"Total Products", len(snap.Products)},
		{"Total Transactions", len(snap.Transactions)},
		{"Total Sales", centsValue(snap.TotalSales)},
	}
	for i, cells := range summary {
		if err := writeRow(f, SheetSummary, i+1, cells); err != nil {
			return err
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace workbook: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

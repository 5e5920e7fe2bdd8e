package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/gpos/internal/model"
)

// TimestampLayout is how times appear in text output.
const TimestampLayout = "2006-01-02 15:04:05"

// WriteText writes the flat text report.
func WriteText(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "=== POS System Data Export ===")
	if snap.StoreName != "" {
		fmt.Fprintf(bw, "Store: %s\n", snap.StoreName)
	}
	fmt.Fprintf(bw, "Export Date: %s\n", snap.GeneratedAt.Format(TimestampLayout))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "=== PRODUCTS ===")
	fmt.Fprintf(bw, "%-5s %-20s %-10s %-15s %-10s\n", "ID", "Name", "Price", "Category", "Stock")
	fmt.Fprintln(bw, strings.Repeat("-", 70))
	for _, p := range snap.Products {
		fmt.Fprintf(bw, "%-5d %-20s $%-9s %-15s %-10d\n",
			p.ID, p.Name, model.FormatCents(p.Price), p.EffectiveCategory(), p.Quantity)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "=== TRANSACTIONS ===")
	fmt.Fprintf(bw, "%-10s %-20s %-15s %-10s\n", "ID", "Date", "Items", "Total")
	fmt.Fprintln(bw, strings.Repeat("-", 60))
	for _, tx := range snap.Transactions {
		if tx == nil {
			continue
		}
		fmt.Fprintf(bw, "%-10d %-20s %-15d $%-9s\n",
			tx.ID, tx.Timestamp.Format(TimestampLayout), tx.ItemCount(), model.FormatCents(tx.Total))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "=== SUMMARY ===")
	fmt.Fprintf(bw, "Total Products: %d\n", len(snap.Products))
	fmt.Fprintf(bw, "Total Transactions: %d\n", len(snap.Transactions))
	fmt.Fprintf(bw, "Total Sales: $%s\n", model.FormatCents(snap.TotalSales))

	return bw.Flush()
}

// WriteTextFile writes the text report to path.
func WriteTextFile(path string, snap Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	return WriteText(f, snap)
}

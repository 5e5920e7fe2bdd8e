package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/roach88/gpos/internal/model"
)

// Statistics summarizes the live data and its backups.
type Statistics struct {
	Products          int       `json:"products"`
	Transactions      int       `json:"transactions"`
	TotalSales        int64     `json:"total_sales"`
	InventoryValue    int64     `json:"inventory_value"`
	LowStock          int       `json:"low_stock"`
	Pending           bool      `json:"pending"`
	Backups           int       `json:"backups"`
	LatestBackup      string    `json:"latest_backup,omitempty"`
	LatestBackupLabel string    `json:"latest_backup_label,omitempty"`
	LatestBackupAt    time.Time `json:"latest_backup_at,omitzero"`
}

// WriteStatistics renders stats as the data statistics block.
func WriteStatistics(w io.Writer, stats Statistics) error {
	bw := bufio.NewWriter(w)

	saveState := "Up to date"
	if stats.Pending {
		saveState = "Pending"
	}

	fmt.Fprintln(bw, "=== Data Statistics ===")
	fmt.Fprintf(bw, "Products: %d\n", stats.Products)
	fmt.Fprintf(bw, "Transactions: %d\n", stats.Transactions)
	fmt.Fprintf(bw, "Total Sales: $%s\n", model.FormatCents(stats.TotalSales))
	fmt.Fprintf(bw, "Inventory Value: $%s\n", model.FormatCents(stats.InventoryValue))
	fmt.Fprintf(bw, "Low Stock Products: %d\n", stats.LowStock)
	fmt.Fprintf(bw, "Last Auto-Save: %s\n", saveState)
	fmt.Fprintf(bw, "Available Backups: %d\n", stats.Backups)
	if stats.LatestBackup != "" {
		fmt.Fprintf(bw, "Latest Backup: %s (%s)\n", stats.LatestBackup, stats.LatestBackupLabel)
	}

	return bw.Flush()
}

package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - products, transactions, transaction_items, export_meta
const currentSchemaVersion = 1

// WriteSQLite writes snap to a fresh SQLite database at path.
// An existing file at path is replaced. Everything is inserted in a single
// transaction.
func WriteSQLite(path string, snap Snapshot) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replace database: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := insertSnapshot(context.Background(), db, snap); err != nil {
		return err
	}

	// Fold the WAL back into the main file so the export is a single file.
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// openDB opens the database and applies pragmas and schema.
//
// The database is configured with:
//   - WAL mode
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//   - Foreign key enforcement
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, db *sql.DB, snap Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range snap.Products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products
			(id, name, description, category, price_cents, quantity, min_stock_level, barcode, active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.ID, p.Name, p.Description, p.EffectiveCategory(), p.Price,
			p.Quantity, p.MinStockLevel, p.Barcode, p.Active,
		)
		if err != nil {
			return fmt.Errorf("export: insert product %d: %w", p.ID, err)
		}
	}

	for _, t := range snap.Transactions {
		if t == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions
			(id, timestamp, subtotal_cents, tax_rate, tax_cents, total_cents,
			 payment_method, customer_name, notes, amount_paid, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			t.ID, t.Timestamp.UTC().Format(time.RFC3339), t.Subtotal, t.TaxRate, t.Tax, t.Total,
			t.Payment(), t.CustomerName, t.Notes, t.AmountPaid, t.Completed,
		)
		if err != nil {
			return fmt.Errorf("export: insert transaction %d: %w", t.ID, err)
		}

		for line, item := range t.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transaction_items
				(transaction_id, line, product_id, product_name, category, quantity, unit_price_cents, total_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				t.ID, line+1, item.ProductID(), item.Product.Name, item.Product.EffectiveCategory(),
				item.Quantity, item.UnitPrice, item.TotalPrice,
			)
			if err != nil {
				return fmt.Errorf("export: insert transaction %d line %d: %w", t.ID, line+1, err)
			}
		}
	}

	meta := map[string]string{
		"store_name":   snap.StoreName,
		"currency":     snap.Currency,
		"generated_at": snap.GeneratedAt.UTC().Format(time.RFC3339),
		"total_sales":  strconv.FormatInt(snap.TotalSales, 10),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("export: insert meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}

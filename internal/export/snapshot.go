package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/gpos/internal/model"
)

// Snapshot is the data an export renders.
type Snapshot struct {
	GeneratedAt  time.Time
	StoreName    string
	Currency     string
	Products     []model.Product
	Transactions []*model.Transaction
	TotalSales   int64
}

// Format identifies an export file format.
type Format string

const (
	FormatText     Format = "text"
	FormatWorkbook Format = "xlsx"
	FormatSQLite   Format = "sqlite"
)

// ErrUnknownFormat is returned for file extensions with no exporter.
var ErrUnknownFormat = errors.New("unknown export format")

// FormatForPath picks the export format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".xlsx":
		return FormatWorkbook, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q (want .txt, .xlsx or .db)", ErrUnknownFormat, filepath.Ext(path))
	}
}

// WriteFile exports snap to path in the format chosen by its extension.
// An existing file at path is replaced.
func WriteFile(path string, snap Snapshot) (Format, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatText:
		err = WriteTextFile(path, snap)
	case FormatWorkbook:
		err = WriteWorkbook(path, snap)
	case FormatSQLite:
		err = WriteSQLite(path, snap)
	}
	if err != nil {
		return format, fmt.Errorf("export %s: %w", format, err)
	}
	return format, nil
}

// centsValue converts cents to a float for spreadsheet cells.
func centsValue(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

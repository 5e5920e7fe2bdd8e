// Package export renders a point-of-sale snapshot to write-only formats.
//
// Three formats are supported, selected by file extension:
//
//	.txt   flat text report (products, transactions, summary)
//	.xlsx  spreadsheet with Products, Transactions and Summary sheets
//	.db    SQLite database with products, transactions and transaction_items
//
// Exports are never read back. Money is stored in cents and rendered with
// two decimals using shopspring/decimal.
package export

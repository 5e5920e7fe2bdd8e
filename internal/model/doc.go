// Package model defines the point-of-sale entities owned by the store.
//
// Entities are plain values:
//   - Product: catalog entry with price and stock level
//   - Transaction: completed sale with its line items and derived totals
//   - Settings: typed key/value store configuration
//
// All money amounts are integer minor-currency units (cents). The only
// behavior on these types is recomputation of derived fields; a Transaction
// recomputes subtotal, tax and total before any mutator returns, so callers
// never observe inconsistent totals.
package model

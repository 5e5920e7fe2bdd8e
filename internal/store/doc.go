// Package store owns the canonical in-memory point-of-sale state and its
// on-disk representation.
//
// The store keeps three collections, each persisted as one artifact file in
// the data directory:
//   - products.json: the product catalog
//   - transactions.json: completed sales, append-only
//   - settings.json: typed store settings
//
// Artifacts are whole-collection snapshots, not logs. Each file is a
// versioned JSON envelope (see codec.go) and is replaced atomically on save.
//
// # Concurrency
//
// Two locks guard a Store:
//   - mu protects the collections, id counters, dirty flag and generation
//   - ioMu serializes disk-level operations (save, reload, backup, restore)
//
// Save encodes a snapshot under mu and writes it with mu released. Every
// mutation bumps the generation; the dirty flag is cleared only when the
// generation observed at snapshot time is still current, so a mutation
// racing a save is never reported as persisted.
//
// # Failure model
//
// Disk problems never stop the store from serving. A missing artifact is a
// first run (defaults are seeded); an undecodable artifact is logged and its
// collection starts empty; a failed write leaves the store dirty so the next
// auto-save retries.
//
// Mutators never touch the disk and perform no input validation; callers
// validate at their boundary.
package store

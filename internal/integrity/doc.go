// Package integrity validates and repairs a freshly loaded store.
//
// The checker runs once at startup, after Load. When an artifact file was
// missing and a backup exists, it restores the newest backup and stops.
// Otherwise it repairs the in-memory state in place:
//
//   - products with blank names are dropped
//   - duplicate product ids keep the first record and renumber the rest
//   - transactions with no item list, or referencing unknown products, are dropped
//   - missing required settings are reinserted and an out-of-range tax rate
//     is reset, using the embedded CUE schema in settings.cue
//
// Repairs mark the store dirty; the checker itself never saves.
package integrity

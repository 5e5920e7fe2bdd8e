// Package backup creates, lists, prunes and restores point-in-time snapshots
// of the store's artifact files.
//
// Layout under the backup root:
//
//	backups/
//	  backup_20240315_093000/
//	    products.json
//	    transactions.json
//	    settings.json
//	    manifest.json
//
// Directory names carry a second-resolution timestamp; two snapshots in the
// same second get "_2", "_3", ... suffixes. manifest.json records a UUIDv7
// id and the exact creation time, which is what ordering and retention use.
// Snapshots without a readable manifest fall back to the timestamp in their
// name, then to the directory modification time.
//
// The package copies files only. Serializing snapshots against saves and
// reloading the store after a restore are the caller's job.
package backup

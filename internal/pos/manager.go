// Package pos is the collaborator interface of the point-of-sale store.
//
// Manager wires the store, backup manager, integrity checker and auto-save
// scheduler together. The CLI and the local API call nothing else.
package pos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/gpos/internal/autosave"
	"github.com/roach88/gpos/internal/backup"
	"github.com/roach88/gpos/internal/config"
	"github.com/roach88/gpos/internal/export"
	"github.com/roach88/gpos/internal/integrity"
	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/store"
)

// Backup errors surfaced by the manager.
var (
	// ErrBackupNotFound is returned for a path that is not a backup directory.
	ErrBackupNotFound = backup.ErrBackupNotFound

	// ErrBackupCorrupt is returned when a backup fails checksum verification.
	ErrBackupCorrupt = backup.ErrChecksumMismatch
)

// Clock supplies wall-clock time to every component.
type Clock interface {
	Now() time.Time
}

// Manager is the point-of-sale data manager.
type Manager struct {
	cfg      config.Config
	clock    Clock
	loc      *time.Location
	log      *slog.Logger
	store    *store.Store
	backups  *backup.Manager
	autosave *autosave.Scheduler

	loadReport      store.LoadReport
	integrityReport integrity.Report
}

type openOptions struct {
	clock Clock
	ids   backup.IDGenerator
	loc   *time.Location
	log   *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

// WithClock sets the clock used for timestamps and backup names.
func WithClock(c Clock) Option {
	return func(o *openOptions) {
		o.clock = c
	}
}

// WithBackupIDs sets the backup manifest id generator.
func WithBackupIDs(g backup.IDGenerator) Option {
	return func(o *openOptions) {
		o.ids = g
	}
}

// WithLocation sets the zone for backup names and calendar-day reports.
func WithLocation(loc *time.Location) Option {
	return func(o *openOptions) {
		o.loc = loc
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		o.log = l
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Open creates the data directory, loads the artifacts and runs the
// integrity check. The only fatal condition is a data or backup directory
// that cannot be created; load problems are logged and repaired.
func Open(cfg config.Config, opts ...Option) (*Manager, error) {
	o := openOptions{
		clock: systemClock{},
		ids:   backup.UUIDv7Generator{},
		loc:   time.Local,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(cfg.DataDir, store.WithClock(o.clock), store.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	bm, err := backup.New(cfg.DataDir, cfg.BackupRoot(), store.ArtifactFiles(),
		backup.WithRetention(cfg.BackupRetention),
		backup.WithClock(o.clock),
		backup.WithIDGenerator(o.ids),
		backup.WithLocation(o.loc),
		backup.WithLogger(o.log),
	)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		clock:    o.clock,
		loc:      o.loc,
		log:      o.log,
		store:    st,
		backups:  bm,
		autosave: autosave.New(st, cfg.AutosaveInterval, o.log),
	}

	m.loadReport = st.Load()
	report, err := integrity.New(st, m, integrity.WithLogger(o.log)).Run(m.loadReport)
	if err != nil {
		// A failed auto-restore leaves the freshly loaded data in place.
		o.log.Error("integrity check failed", "error", err)
	}
	m.integrityReport = report

	o.log.Debug("pos manager ready",
		"data_dir", cfg.DataDir,
		"backup_dir", bm.Root(),
		"products", len(st.Products()),
		"transactions", len(st.Transactions()),
	)
	return m, nil
}

// Config returns the configuration the manager was opened with.
func (m *Manager) Config() config.Config {
	return m.cfg
}

// DataDir returns the data directory.
func (m *Manager) DataDir() string {
	return m.store.Dir()
}

// LoadReport returns what the startup load did with each artifact.
func (m *Manager) LoadReport() store.LoadReport {
	return m.loadReport
}

// IntegrityReport returns the result of the startup integrity check.
func (m *Manager) IntegrityReport() integrity.Report {
	return m.integrityReport
}

// CheckIntegrity re-runs the repairs on the live state. No file is treated
// as missing, so it never restores a backup.
func (m *Manager) CheckIntegrity() (integrity.Report, error) {
	report, err := integrity.New(m.store, nil, integrity.WithLogger(m.log)).Run(nil)
	if err != nil {
		return report, err
	}
	m.integrityReport = report
	return report, nil
}

// HasUnsavedChanges reports whether there are mutations not yet on disk.
func (m *Manager) HasUnsavedChanges() bool {
	return m.store.Dirty()
}

// ForceSave writes all artifacts now.
func (m *Manager) ForceSave() error {
	return m.store.Save()
}

// FlushIfDirty saves only when there are unsaved changes.
func (m *Manager) FlushIfDirty() (bool, error) {
	return m.store.FlushIfDirty()
}

// StartAutoSave begins periodic background saves until ctx ends or Close
// is called.
func (m *Manager) StartAutoSave(ctx context.Context) {
	m.autosave.Start(ctx)
}

// Close stops auto-save and flushes any unsaved changes.
func (m *Manager) Close() error {
	return m.autosave.Shutdown()
}

// CreateBackup snapshots the artifacts currently on disk.
func (m *Manager) CreateBackup() (backup.Info, error) {
	var info backup.Info
	err := m.store.Exclusive(func(store.Locked) error {
		var err error
		info, err = m.backups.Create()
		return err
	})
	return info, err
}

// Backups lists the available backups newest first.
func (m *Manager) Backups() ([]backup.Info, error) {
	return m.backups.List()
}

// LatestBackup returns the newest backup, if any.
func (m *Manager) LatestBackup() (backup.Info, bool, error) {
	return m.backups.Latest()
}

// ResolveBackup turns a path, backup directory name or manifest id into a
// backup path.
func (m *Manager) ResolveBackup(ref string) (string, error) {
	return m.backups.Resolve(ref)
}

// VerifyBackup checks the files of the backup at path against the
// checksums in its manifest.
func (m *Manager) VerifyBackup(path string) error {
	return m.backups.Verify(path)
}

// RestoreFromBackup replaces the live data with the backup at path.
//
// The backup is verified and the current files are snapshotted first; if
// either fails nothing is restored. Unsaved in-memory changes are discarded. A path that is not a
// backup directory returns ErrBackupNotFound and leaves the store untouched.
func (m *Manager) RestoreFromBackup(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("restore %s: %w", path, ErrBackupNotFound)
	}

	err = m.store.Exclusive(func(l store.Locked) error {
		if err := m.backups.Verify(path); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		safety, err := m.backups.Snapshot()
		if err != nil {
			return fmt.Errorf("restore: safety backup: %w", err)
		}
		m.log.Info("safety backup created before restore", "path", safety.Path)

		if err := m.backups.RestoreFiles(path); err != nil {
			return err
		}
		l.Reload()
		return nil
	})
	if err != nil {
		return err
	}
	m.backups.Prune()
	m.log.Info("data restored from backup", "path", path)
	return nil
}

// ClearAllData takes a safety backup, then wipes every collection, resets
// both id counters, reinstalls the default settings and saves.
func (m *Manager) ClearAllData() error {
	return m.store.Exclusive(func(l store.Locked) error {
		if _, err := m.backups.Create(); err != nil {
			return fmt.Errorf("clear: safety backup: %w", err)
		}
		m.store.Reset(model.DefaultSettings())
		if err := l.Save(); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		m.log.Info("all data cleared")
		return nil
	})
}

// Snapshot captures the data an export renders.
func (m *Manager) Snapshot() export.Snapshot {
	st := m.store.Snapshot()
	currency, _ := st.Settings.String(model.SettingCurrency)

	var total int64
	for _, tx := range st.Transactions {
		if tx != nil {
			total += tx.Total
		}
	}
	return export.Snapshot{
		GeneratedAt:  m.clock.Now(),
		StoreName:    st.Settings.StoreName(),
		Currency:     currency,
		Products:     st.Products,
		Transactions: st.Transactions,
		TotalSales:   total,
	}
}

// ExportReport writes the text report to w.
func (m *Manager) ExportReport(w io.Writer) error {
	return export.WriteText(w, m.Snapshot())
}

// ExportFile writes an export to path in the format chosen by its
// extension (.txt, .xlsx or .db).
func (m *Manager) ExportFile(path string) (export.Format, error) {
	format, err := export.WriteFile(path, m.Snapshot())
	if err != nil {
		return format, err
	}
	m.log.Info("data exported", "path", path, "format", format)
	return format, nil
}

// Statistics summarizes the data and its backups. A failure to list
// backups is logged and reported as zero backups.
func (m *Manager) Statistics() export.Statistics {
	stats := export.Statistics{
		Products:       len(m.store.Products()),
		Transactions:   len(m.store.Transactions()),
		TotalSales:     m.store.TotalSales(),
		InventoryValue: m.store.InventoryValue(),
		LowStock:       len(m.store.LowStockProducts()),
		Pending:        m.store.Dirty(),
	}

	list, err := m.backups.List()
	if err != nil {
		m.log.Warn("failed to list backups", "error", err)
		return stats
	}
	stats.Backups = len(list)
	if len(list) > 0 {
		latest := list[0]
		stats.LatestBackup = latest.Path
		stats.LatestBackupLabel = latest.CreatedAt.In(m.loc).Format(backup.LabelLayout)
		stats.LatestBackupAt = latest.CreatedAt
	}
	return stats
}

// WriteStatistics renders Statistics as text.
func (m *Manager) WriteStatistics(w io.Writer) error {
	return export.WriteStatistics(w, m.Statistics())
}

package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Naming and retention defaults.
const (
	DirPrefix        = "backup_"
	TimestampLayout  = "20060102_150405"
	LabelLayout      = "2006-01-02 15:04:05"
	ManifestFile     = "manifest.json"
	DefaultRetention = 10
)

// manifestVersion is the manifest.json format written by this build.
// Version 2 added per-file checksums.
const manifestVersion = 2

// ErrBackupNotFound is returned when a backup path or reference does not exist.
var ErrBackupNotFound = errors.New("backup not found")

// Clock supplies the snapshot creation time.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies manifest ids.
// UUIDv7Generator in production; testutil.SequentialIDs in tests.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 snapshot ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Manifest is the metadata file written into every snapshot.
type Manifest struct {
	ID        string            `json:"id"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Files     []string          `json:"files"`
	Checksums map[string]string `json:"checksums,omitempty"`
}

// Info describes one snapshot.
type Info struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label"`
	Files     []string  `json:"files"`
}

// Manager manages snapshots of a fixed set of files in a data directory.
type Manager struct {
	dataDir   string
	root      string
	files     []string
	retention int
	clock     Clock
	ids       IDGenerator
	loc       *time.Location
	log       *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how many snapshots survive pruning. Values below 1 are
// ignored.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.retention = n
		}
	}
}

// WithClock sets the clock used for creation times.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator sets the manifest id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithLocation sets the zone used to render directory names and labels.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		m.loc = loc
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New creates a Manager that snapshots files (names relative to dataDir)
// into root. The root directory is created if needed.
func New(dataDir, root string, files []string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	m := &Manager{
		dataDir:   dataDir,
		root:      root,
		files:     append([]string(nil), files...),
		retention: DefaultRetention,
		clock:     systemClock{},
		ids:       UUIDv7Generator{},
		loc:       time.Local,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the backup root directory.
func (m *Manager) Root() string {
	return m.root
}

// Retention returns the number of snapshots kept by pruning.
func (m *Manager) Retention() int {
	return m.retention
}

// Create snapshots the current files and prunes old snapshots.
func (m *Manager) Create() (Info, error) {
	info, err := m.Snapshot()
	if err != nil {
		return Info{}, err
	}
	m.Prune()
	return info, nil
}

// Snapshot copies the current files into a new snapshot without pruning.
// Restore uses it for the safety copy so the snapshot being restored cannot
// be pruned before it is read.
//
// Files that do not exist yet are skipped. A snapshot that fails halfway is
// removed so it can never be picked as the latest.
func (m *Manager) Snapshot() (Info, error) {
	now := m.clock.Now()

	name, path, err := m.makeDir(now)
	if err != nil {
		return Info{}, fmt.Errorf("create backup: %w", err)
	}

	copied := []string{}
	sums := map[string]string{}
	for _, f := range m.files {
		dst := filepath.Join(path, f)
		ok, err := copyFile(filepath.Join(m.dataDir, f), dst)
		if err == nil && ok {
			sums[f], err = fileChecksum(dst)
		}
		if err != nil {
			m.discard(path)
			return Info{}, fmt.Errorf("create backup: copy %s: %w", f, err)
		}
		if ok {
			copied = append(copied, f)
		}
	}

	manifest := Manifest{
		ID:        m.ids.NewID(),
		Version:   manifestVersion,
		CreatedAt: now,
		Files:     copied,
		Checksums: sums,
	}
	if err := writeManifest(path, manifest); err != nil {
		m.discard(path)
		return Info{}, fmt.Errorf("create backup: %w", err)
	}

	m.log.Info("backup created", "path", path, "files", len(copied))
	return m.info(name, path, manifest.ID, now, copied), nil
}

// List returns the snapshots newest first. Directories whose names do not
// carry a valid timestamp are skipped.
func (m *Manager) List() ([]Info, error) {
	entries, err := m.scan()
	if err != nil {
		return nil, err
	}

	out := []Info{}
	for _, e := range entries {
		if !e.named {
			continue
		}
		out = append(out, m.info(e.name, e.path, e.id, e.createdAt, e.files))
	}
	return out, nil
}

// Latest returns the newest snapshot, if any.
func (m *Manager) Latest() (Info, bool, error) {
	list, err := m.List()
	if err != nil || len(list) == 0 {
		return Info{}, false, err
	}
	return list[0], true, nil
}

// Resolve turns a reference into a snapshot path. The reference may be a
// directory path, a snapshot directory name under the root, or a manifest
// id.
func (m *Manager) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("resolve backup: %w: empty reference", ErrBackupNotFound)
	}
	if isDir(ref) {
		return ref, nil
	}
	if candidate := filepath.Join(m.root, ref); isDir(candidate) {
		return candidate, nil
	}
	list, err := m.List()
	if err != nil {
		return "", fmt.Errorf("resolve backup: %w", err)
	}
	for _, b := range list {
		if b.ID == ref {
			return b.Path, nil
		}
	}
	return "", fmt.Errorf("resolve backup %q: %w", ref, ErrBackupNotFound)
}

// RestoreFiles copies the files of the snapshot at path over the live files
// in the data directory. Files absent from the snapshot are left untouched.
// The snapshot is verified first; a checksum mismatch restores nothing.
//
// There is no rollback: if a copy fails, files copied before it stay
// restored.
func (m *Manager) RestoreFiles(path string) error {
	if !isDir(path) {
		return fmt.Errorf("restore %s: %w", path, ErrBackupNotFound)
	}
	if err := m.Verify(path); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	for _, f := range m.files {
		if _, err := copyFile(filepath.Join(path, f), filepath.Join(m.dataDir, f)); err != nil {
			return fmt.Errorf("restore %s: copy %s: %w", path, f, err)
		}
	}
	m.log.Info("backup files restored", "path", path)
	return nil
}

// makeDir creates the snapshot directory, adding a numeric suffix when a
// snapshot with the same second already exists.
func (m *Manager) makeDir(now time.Time) (string, string, error) {
	base := DirPrefix + now.In(m.loc).Format(TimestampLayout)
	name := base
	for n := 2; ; n++ {
		path := filepath.Join(m.root, name)
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return name, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		name = base + "_" + strconv.Itoa(n)
	}
}

// Prune removes every snapshot beyond the retention count, oldest first.
// Removal failures are logged and not retried.
func (m *Manager) Prune() {
	entries, err := m.scan()
	if err != nil {
		m.log.Warn("failed to list backups for pruning", "error", err)
		return
	}
	if len(entries) <= m.retention {
		return
	}
	for _, e := range entries[m.retention:] {
		if err := os.RemoveAll(e.path); err != nil {
			m.log.Warn("failed to remove old backup", "path", e.path, "error", err)
			continue
		}
		m.log.Debug("old backup removed", "path", e.path)
	}
}

func (m *Manager) discard(path string) {
	if err := os.RemoveAll(path); err != nil {
		m.log.Warn("failed to remove incomplete backup", "path", path, "error", err)
	}
}

func (m *Manager) info(name, path, id string, createdAt time.Time, files []string) Info {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Info{
		ID:        id,
		Name:      name,
		Path:      path,
		CreatedAt: createdAt,
		Label:     fmt.Sprintf("%s (%s)", path, createdAt.In(m.loc).Format(LabelLayout)),
		Files:     files,
	}
}

// entry is a snapshot directory found on disk.
type entry struct {
	name      string
	path      string
	id        string
	createdAt time.Time
	files     []string
	named     bool // name carries a valid timestamp
}

// scan returns every snapshot directory, newest first.
func (m *Manager) scan() ([]entry, error) {
	dirents, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	var entries []entry
	for _, d := range dirents {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), DirPrefix) {
			continue
		}
		e := entry{name: d.Name(), path: filepath.Join(m.root, d.Name())}

		nameTime, named := m.parseName(d.Name())
		e.named = named
		if manifest, err := readManifest(e.path); err == nil {
			e.id = manifest.ID
			e.createdAt = manifest.CreatedAt
			e.files = manifest.Files
		}
		if e.createdAt.IsZero() && named {
			e.createdAt = nameTime
		}
		if e.createdAt.IsZero() {
			if fi, err := d.Info(); err == nil {
				e.createdAt = fi.ModTime()
			}
		}
		if e.files == nil {
			e.files = m.presentFiles(e.path)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].createdAt.After(entries[j].createdAt)
		}
		return entries[i].name > entries[j].name
	})
	return entries, nil
}

// parseName extracts the timestamp from "backup_YYYYMMDD_HHMMSS[_N]".
func (m *Manager) parseName(name string) (time.Time, bool) {
	rest := strings.TrimPrefix(name, DirPrefix)
	if len(rest) < len(TimestampLayout) {
		return time.Time{}, false
	}
	stamp, suffix := rest[:len(TimestampLayout)], rest[len(TimestampLayout):]
	if suffix != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(suffix, "_"))
		if !strings.HasPrefix(suffix, "_") || err != nil || n < 2 {
			return time.Time{}, false
		}
	}
	t, err := time.ParseInLocation(TimestampLayout, stamp, m.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m *Manager) presentFiles(path string) []string {
	out := []string{}
	for _, f := range m.files {
		if _, err := os.Stat(filepath.Join(path, f)); err == nil {
			out = append(out, f)
		}
	}
	return out
}

func writeManifest(dir string, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (Manifest, error) {
	var manifest Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("decode manifest: %w", err)
	}
	return manifest, nil
}

// copyFile copies src to dst through a temp file and rename.
// Reports false without error when src does not exist.
func copyFile(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return false, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return false, err
	}
	return true, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

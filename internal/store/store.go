package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/gpos/internal/model"
)

// Clock supplies wall-clock time for transaction timestamps and artifact
// metadata. Tests substitute testutil.FakeClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// State is the complete in-memory state owned by a Store.
//
// Transactions holds pointers so that a decoded `null` entry survives until
// the integrity checker removes it.
type State struct {
	Products          []model.Product
	Transactions      []*model.Transaction
	Settings          model.Settings
	NextProductID     int
	NextTransactionID int
}

// Store is the single-writer embedded point-of-sale store.
type Store struct {
	dir   string
	clock Clock
	log   *slog.Logger
	write func(path string, data []byte) error

	ioMu sync.Mutex

	mu    sync.Mutex
	state State
	dirty bool
	gen   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps.
func WithClock(c Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// Open prepares a store rooted at dir, creating the directory if needed.
// The store starts empty; call Load to read the artifacts.
//
// Failure to create the data directory is the one unrecoverable startup
// condition and is returned as an error.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{
		dir:   dir,
		clock: systemClock{},
		log:   slog.Default(),
		write: writeArtifact,
		state: State{
			Products:          []model.Product{},
			Transactions:      []*model.Transaction{},
			Settings:          model.Settings{},
			NextProductID:     1,
			NextTransactionID: 1,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of an artifact file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Dirty reports whether there are mutations not yet saved.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// NextProductID returns the id the next auto-numbered product will get.
func (s *Store) NextProductID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.NextProductID
}

// NextTransactionID returns the id the next transaction will get.
func (s *Store) NextTransactionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.NextTransactionID
}

// Artifact load outcomes reported by Load.
const (
	OutcomeLoaded = "loaded"
	OutcomeSeeded = "seeded"
	OutcomeReset  = "reset"
)

// LoadReport records what Load did with each artifact, keyed by file name.
type LoadReport map[string]string

// Load replaces the in-memory state with the artifacts on disk.
//
// Missing artifacts are a first run: products are seeded with the default
// catalog, transactions start empty, settings get their defaults, and every
// seeded artifact is written immediately. An artifact that
// exists but cannot be decoded is logged and its collection starts empty.
// Load never fails; the report says what happened.
func (s *Store) Load() LoadReport {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() LoadReport {
	report := LoadReport{}
	now := s.clock.Now()

	// Products
	var products []model.Product
	nextProductID := 1
	err := readArtifact(s.Path(ProductsFile), KindProducts, &products)
	switch {
	case err == nil:
		if products == nil {
			products = []model.Product{}
		}
		nextProductID = nextProductIDFor(products)
		report[ProductsFile] = OutcomeLoaded
	case errors.Is(err, fs.ErrNotExist):
		products = SeedProducts()
		nextProductID = SeedNextProductID
		s.writeSeed(ProductsFile, KindProducts, now, products)
		report[ProductsFile] = OutcomeSeeded
	default:
		s.log.Error("failed to load artifact, starting empty", "artifact", ProductsFile, "error", err)
		products = []model.Product{}
		report[ProductsFile] = OutcomeReset
	}

	// Transactions
	var transactions []*model.Transaction
	err = readArtifact(s.Path(TransactionsFile), KindTransactions, &transactions)
	switch {
	case err == nil:
		if transactions == nil {
			transactions = []*model.Transaction{}
		}
		report[TransactionsFile] = OutcomeLoaded
	case errors.Is(err, fs.ErrNotExist):
		transactions = []*model.Transaction{}
		s.writeSeed(TransactionsFile, KindTransactions, now, transactions)
		report[TransactionsFile] = OutcomeSeeded
	default:
		s.log.Error("failed to load artifact, starting empty", "artifact", TransactionsFile, "error", err)
		transactions = []*model.Transaction{}
		report[TransactionsFile] = OutcomeReset
	}

	// Settings
	var settings model.Settings
	err = readArtifact(s.Path(SettingsFile), KindSettings, &settings)
	switch {
	case err == nil:
		if settings == nil {
			settings = model.Settings{}
		}
		for k, v := range model.RequiredSettings() {
			if _, ok := settings[k]; !ok {
				settings[k] = v
			}
		}
		report[SettingsFile] = OutcomeLoaded
	case errors.Is(err, fs.ErrNotExist):
		settings = model.DefaultSettings()
		s.writeSeed(SettingsFile, KindSettings, now, settings)
		report[SettingsFile] = OutcomeSeeded
	default:
		s.log.Error("failed to load artifact, starting empty", "artifact", SettingsFile, "error", err)
		settings = model.Settings{}
		report[SettingsFile] = OutcomeReset
	}

	s.mu.Lock()
	s.state = State{
		Products:          products,
		Transactions:      transactions,
		Settings:          settings,
		NextProductID:     nextProductID,
		NextTransactionID: nextTransactionIDFor(transactions),
	}
	s.dirty = false
	s.gen++
	s.mu.Unlock()

	s.log.Debug("store loaded",
		"products", len(products),
		"transactions", len(transactions),
		"settings", len(settings),
	)
	return report
}

// writeSeed persists first-run data. Failures are logged; the next save
// retries because the seeded collection is written with every save anyway.
func (s *Store) writeSeed(name, kind string, now time.Time, v any) {
	data, err := encodeArtifact(kind, now, v)
	if err == nil {
		err = s.write(s.Path(name), data)
	}
	if err != nil {
		s.log.Error("failed to write seed artifact", "artifact", name, "error", err)
	}
}

// Save writes all three artifacts. Each artifact is written independently;
// a failure on one does not prevent attempting the others. The returned
// error joins every failure.
//
// The dirty flag is cleared only if every write succeeded and no mutation
// happened after the snapshot was taken.
func (s *Store) Save() error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	return s.saveLocked()
}

// FlushIfDirty saves only when there are unsaved mutations.
// Reports whether a save was attempted.
func (s *Store) FlushIfDirty() (bool, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if !s.Dirty() {
		return false, nil
	}
	return true, s.saveLocked()
}

type encodedArtifact struct {
	name string
	data []byte
	err  error
}

func (s *Store) saveLocked() error {
	now := s.clock.Now()

	s.mu.Lock()
	gen := s.gen
	pending := []encodedArtifact{
		encoded(ProductsFile, KindProducts, now, s.state.Products),
		encoded(TransactionsFile, KindTransactions, now, s.state.Transactions),
		encoded(SettingsFile, KindSettings, now, s.state.Settings),
	}
	s.mu.Unlock()

	var errs []error
	for _, a := range pending {
		err := a.err
		if err == nil {
			err = s.write(s.Path(a.name), a.data)
		}
		if err != nil {
			s.log.Error("failed to save artifact", "artifact", a.name, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("save: %w", errors.Join(errs...))
	}

	s.mu.Lock()
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()

	s.log.Debug("store saved", "dir", s.dir)
	return nil
}

func encoded(name, kind string, now time.Time, v any) encodedArtifact {
	data, err := encodeArtifact(kind, now, v)
	return encodedArtifact{name: name, data: data, err: err}
}

// Locked gives a function running under Exclusive access to the disk
// operations that would otherwise deadlock on the I/O lock.
type Locked struct {
	s *Store
}

// Save writes all artifacts; see Store.Save.
func (l Locked) Save() error {
	return l.s.saveLocked()
}

// Reload replaces the in-memory state from disk; see Store.Load.
func (l Locked) Reload() LoadReport {
	return l.s.loadLocked()
}

// Exclusive runs fn while holding the I/O lock, so no save, reload or other
// exclusive operation interleaves with it. Backup and restore run here.
func (s *Store) Exclusive(fn func(Locked) error) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	return fn(Locked{s: s})
}

// Update runs fn against the live state under the state lock. When fn
// reports a change the store becomes dirty. fn must not retain the state.
func (s *Store) Update(fn func(st *State) (changed bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn(&s.state) {
		s.markDirtyLocked()
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Products:          copyProducts(s.state.Products),
		Transactions:      copyTransactions(s.state.Transactions),
		Settings:          s.state.Settings.Clone(),
		NextProductID:     s.state.NextProductID,
		NextTransactionID: s.state.NextTransactionID,
	}
}

// Reset wipes every collection, restarts both id counters at 1 and installs
// settings. The store becomes dirty.
func (s *Store) Reset(settings model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		Products:          []model.Product{},
		Transactions:      []*model.Transaction{},
		Settings:          settings.Clone(),
		NextProductID:     1,
		NextTransactionID: 1,
	}
	if s.state.Settings == nil {
		s.state.Settings = model.Settings{}
	}
	s.markDirtyLocked()
}

func (s *Store) markDirtyLocked() {
	s.dirty = true
	s.gen++
}

func nextProductIDFor(products []model.Product) int {
	highest := 0
	for _, p := range products {
		if p.ID > highest {
			highest = p.ID
		}
	}
	return highest + 1
}

func nextTransactionIDFor(transactions []*model.Transaction) int {
	highest := 0
	for _, t := range transactions {
		if t != nil && t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}

func copyProducts(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	copy(out, products)
	return out
}

func copyTransactions(transactions []*model.Transaction) []*model.Transaction {
	out := make([]*model.Transaction, len(transactions))
	for i, t := range transactions {
		out[i] = t.Clone()
	}
	return out
}

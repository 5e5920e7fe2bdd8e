package integrity

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/gpos/internal/backup"
	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/store"
)

// Restorer replaces the live data with a backup.
// pos.Manager implements it so that auto-restore goes through the same
// safety-backup-then-copy path as a user-requested restore.
type Restorer interface {
	LatestBackup() (backup.Info, bool, error)
	RestoreFromBackup(path string) error
}

// Report describes what a Run found and changed.
type Report struct {
	MissingFiles        []string   `json:"missing_files,omitempty"`
	Restored            bool       `json:"restored"`
	RestoredFrom        string     `json:"restored_from,omitempty"`
	DroppedProducts     int        `json:"dropped_products"`
	Renumbered          []Renumber `json:"renumbered,omitempty"`
	DroppedTransactions int        `json:"dropped_transactions"`
	RestoredSettings    []string   `json:"restored_settings,omitempty"`
	TaxRateReset        bool       `json:"tax_rate_reset"`
	Warnings            []string   `json:"warnings,omitempty"`
}

// Renumber records a duplicate product id that was reassigned.
type Renumber struct {
	Name string `json:"name"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// Changed reports whether the run modified the store.
func (r Report) Changed() bool {
	return r.Restored ||
		r.DroppedProducts > 0 ||
		len(r.Renumbered) > 0 ||
		r.DroppedTransactions > 0 ||
		len(r.RestoredSettings) > 0 ||
		r.TaxRateReset
}

// Checker validates a store after it has been loaded.
type Checker struct {
	store    *store.Store
	restorer Restorer
	log      *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		c.log = l
	}
}

// New creates a checker. restorer may be nil, which disables auto-restore.
func New(s *store.Store, restorer Restorer, opts ...Option) *Checker {
	c := &Checker{
		store:    s,
		restorer: restorer,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run checks the store. loaded is the report from the Load that preceded
// it; every artifact Load had to seed counts as missing.
//
// A backup restore ends the run without validating the restored data.
// An error is returned only when the restore itself fails or the embedded
// schema cannot be compiled.
func (c *Checker) Run(loaded store.LoadReport) (Report, error) {
	var report Report

	report.MissingFiles = missingFiles(loaded)
	if len(report.MissingFiles) > 0 && c.restorer != nil {
		info, ok, err := c.restorer.LatestBackup()
		if err != nil {
			c.log.Warn("cannot list backups for auto-restore", "error", err)
		}
		if ok {
			c.log.Warn("artifacts missing, restoring latest backup",
				"missing", strings.Join(report.MissingFiles, ","),
				"backup", info.Name,
			)
			if err := c.restorer.RestoreFromBackup(info.Path); err != nil {
				return report, fmt.Errorf("auto-restore %s: %w", info.Name, err)
			}
			report.Restored = true
			report.RestoredFrom = info.Path
			return report, nil
		}
	}

	sch, err := loadSchema()
	if err != nil {
		return report, err
	}

	c.store.Update(func(st *store.State) bool {
		c.checkProducts(st, &report)
		c.checkTransactions(st, &report)
		c.checkSettings(st, sch, &report)
		return report.Changed()
	})

	if report.Changed() {
		c.log.Info("integrity repairs applied",
			"dropped_products", report.DroppedProducts,
			"renumbered", len(report.Renumbered),
			"dropped_transactions", report.DroppedTransactions,
			"restored_settings", len(report.RestoredSettings),
			"tax_rate_reset", report.TaxRateReset,
		)
	}
	return report, nil
}

func missingFiles(loaded store.LoadReport) []string {
	var missing []string
	for name, outcome := range loaded {
		if outcome == store.OutcomeSeeded {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func (c *Checker) checkProducts(st *store.State, report *Report) {
	kept := make([]model.Product, 0, len(st.Products))
	for _, p := range st.Products {
		if strings.TrimSpace(p.Name) == "" {
			c.log.Warn("dropping product without name", "id", p.ID)
			report.DroppedProducts++
			continue
		}
		kept = append(kept, p)
	}

	// The counter must clear every id in use before it hands out new ones.
	for _, p := range kept {
		if p.ID >= st.NextProductID {
			st.NextProductID = p.ID + 1
		}
	}

	seen := make(map[int]bool, len(kept))
	for i := range kept {
		p := &kept[i]
		if !seen[p.ID] {
			seen[p.ID] = true
			continue
		}
		to := st.NextProductID
		st.NextProductID++
		c.log.Warn("renumbering duplicate product id", "name", p.Name, "from", p.ID, "to", to)
		report.Renumbered = append(report.Renumbered, Renumber{Name: p.Name, From: p.ID, To: to})
		p.ID = to
		seen[to] = true
	}
	st.Products = kept
}

func (c *Checker) checkTransactions(st *store.State, report *Report) {
	known := make(map[int]bool, len(st.Products))
	for _, p := range st.Products {
		known[p.ID] = true
	}

	kept := make([]*model.Transaction, 0, len(st.Transactions))
	for _, tx := range st.Transactions {
		if reason := invalidTransaction(tx, known); reason != "" {
			id := 0
			if tx != nil {
				id = tx.ID
			}
			c.log.Warn("dropping transaction", "id", id, "reason", reason)
			report.DroppedTransactions++
			continue
		}
		kept = append(kept, tx)
	}
	st.Transactions = kept
}

func invalidTransaction(tx *model.Transaction, known map[int]bool) string {
	if tx == nil {
		return "null record"
	}
	if tx.Items == nil {
		return "no item list"
	}
	for _, item := range tx.Items {
		if !known[item.ProductID()] {
			return fmt.Sprintf("unknown product %d", item.ProductID())
		}
	}
	return ""
}

func (c *Checker) checkSettings(st *store.State, sch *schema, report *Report) {
	if st.Settings == nil {
		st.Settings = model.Settings{}
	}

	required := model.RequiredSettings()
	keys := make([]string, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := st.Settings[k]; !ok {
			st.Settings[k] = required[k]
			report.RestoredSettings = append(report.RestoredSettings, k)
		}
	}

	if !sch.validTaxRate(st.Settings[model.SettingTaxRate]) {
		c.log.Warn("invalid tax rate, resetting",
			"value", st.Settings[model.SettingTaxRate],
			"default", model.DefaultTaxRate,
		)
		st.Settings[model.SettingTaxRate] = model.DefaultTaxRate
		report.TaxRateReset = true
	}

	for _, v := range sch.violations(st.Settings) {
		c.log.Warn("settings do not match schema", "violation", v)
		report.Warnings = append(report.Warnings, v)
	}
}

package integrity

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpos/internal/backup"
	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/store"
	"github.com/roach88/gpos/internal/testutil"
)

type fakeRestorer struct {
	latest   backup.Info
	ok       bool
	listErr  error
	restErr  error
	restored []string
}

func (f *fakeRestorer) LatestBackup() (backup.Info, bool, error) {
	return f.latest, f.ok, f.listErr
}

func (f *fakeRestorer) RestoreFromBackup(path string) error {
	f.restored = append(f.restored, path)
	return f.restErr
}

var allLoaded = store.LoadReport{
	store.ProductsFile:     store.OutcomeLoaded,
	store.TransactionsFile: store.OutcomeLoaded,
	store.SettingsFile:     store.OutcomeLoaded,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLoadedStore returns a seeded store whose state has been replaced by st.
func newLoadedStore(t *testing.T, st store.State) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(),
		store.WithClock(testutil.NewFakeClock(testutil.Epoch)),
		store.WithLogger(discardLogger()),
	)
	require.NoError(t, err)
	s.Load()
	s.Update(func(live *store.State) bool {
		*live = st
		return false
	})
	return s
}

func product(id int, name string) model.Product {
	p := model.NewProduct(name, 100, "Misc")
	p.ID = id
	return p
}

func saleOf(p model.Product) *model.Transaction {
	tx := model.NewTransaction(model.DefaultTaxRate)
	tx.AddItem(p, 1)
	tx.ID = 1
	return tx
}

func TestRun_CleanStoreIsUnchanged(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(1, "Tea")},
		Transactions:      []*model.Transaction{saleOf(product(1, "Tea"))},
		Settings:          model.DefaultSettings(),
		NextProductID:     2,
		NextTransactionID: 2,
	})

	report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	assert.False(t, report.Changed())
	assert.Empty(t, report.Warnings)
	assert.False(t, s.Dirty())
}

func TestRun_DropsProductsWithBlankNames(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(1, "Tea"), product(2, "   "), product(3, "")},
		Transactions:      []*model.Transaction{},
		Settings:          model.DefaultSettings(),
		NextProductID:     4,
		NextTransactionID: 1,
	})

	report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	assert.Equal(t, 2, report.DroppedProducts)
	require.Len(t, s.Products(), 1)
	assert.Equal(t, "Tea", s.Products()[0].Name)
	assert.True(t, s.Dirty())
}

func TestRun_RenumbersDuplicateIDsPreservingCount(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(1, "A"), product(1, "B"), product(2, "C")},
		Transactions:      []*model.Transaction{},
		Settings:          model.DefaultSettings(),
		NextProductID:     3,
		NextTransactionID: 1,
	})

	report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	products := s.Products()
	require.Len(t, products, 3)
	ids := map[int]bool{}
	for _, p := range products {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 3, "ids must be unique")
	assert.Equal(t, 1, products[0].ID)
	assert.Equal(t, 3, products[1].ID)
	assert.Equal(t, "B", products[1].Name)
	assert.Equal(t, []Renumber{{Name: "B", From: 1, To: 3}}, report.Renumbered)
	assert.Equal(t, 4, s.NextProductID())
}

func TestRun_RenumberingSkipsIDsAheadOfCounter(t *testing.T) {
	// A stale counter must not hand out an id that is already taken.
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(5, "A"), product(5, "B")},
		Transactions:      []*model.Transaction{},
		Settings:          model.DefaultSettings(),
		NextProductID:     2,
		NextTransactionID: 1,
	})

	_, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	products := s.Products()
	require.Len(t, products, 2)
	assert.Equal(t, 5, products[0].ID)
	assert.Equal(t, 6, products[1].ID)
}

func TestRun_DropsInvalidTransactions(t *testing.T) {
	tea := product(1, "Tea")
	noItems := saleOf(tea)
	noItems.Items = nil
	unknown := saleOf(product(99, "Ghost"))

	s := newLoadedStore(t, store.State{
		Products:          []model.Product{tea},
		Transactions:      []*model.Transaction{saleOf(tea), nil, noItems, unknown},
		Settings:          model.DefaultSettings(),
		NextProductID:     2,
		NextTransactionID: 2,
	})

	report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	assert.Equal(t, 3, report.DroppedTransactions)
	assert.Len(t, s.Transactions(), 1)
}

func TestRun_EmptyItemListIsKept(t *testing.T) {
	empty := model.NewTransaction(model.DefaultTaxRate)
	empty.ID = 1

	s := newLoadedStore(t, store.State{
		Products:          []model.Product{},
		Transactions:      []*model.Transaction{empty},
		Settings:          model.DefaultSettings(),
		NextProductID:     1,
		NextTransactionID: 2,
	})

	report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
	require.NoError(t, err)

	assert.Zero(t, report.DroppedTransactions)
	assert.Len(t, s.Transactions(), 1)
}

func TestRun_Settings(t *testing.T) {
	tests := []struct {
		name         string
		settings     model.Settings
		wantRestored []string
		wantReset    bool
		wantRate     float64
		wantWarnings bool
	}{
		{
			name:         "missing required keys",
			settings:     model.Settings{model.SettingCurrency: "IDR"},
			wantRestored: []string{model.SettingStoreAddress, model.SettingStoreName, model.SettingTaxRate},
			wantRate:     model.DefaultTaxRate,
		},
		{
			name:      "tax rate above one",
			settings:  withSetting(model.SettingTaxRate, 1.5),
			wantReset: true,
			wantRate:  model.DefaultTaxRate,
		},
		{
			name:      "negative tax rate",
			settings:  withSetting(model.SettingTaxRate, -0.2),
			wantReset: true,
			wantRate:  model.DefaultTaxRate,
		},
		{
			name:      "tax rate of wrong type",
			settings:  withSetting(model.SettingTaxRate, "0.1"),
			wantReset: true,
			wantRate:  model.DefaultTaxRate,
		},
		{
			name:     "boundary tax rate",
			settings: withSetting(model.SettingTaxRate, 1.0),
			wantRate: 1.0,
		},
		{
			name:         "store name of wrong type",
			settings:     withSetting(model.SettingStoreName, 42.0),
			wantRate:     model.DefaultTaxRate,
			wantWarnings: true,
		},
		{
			name:     "unknown keys are allowed",
			settings: withSetting("theme", "dark"),
			wantRate: model.DefaultTaxRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLoadedStore(t, store.State{
				Products:          []model.Product{},
				Transactions:      []*model.Transaction{},
				Settings:          tt.settings,
				NextProductID:     1,
				NextTransactionID: 1,
			})

			report, err := New(s, nil, WithLogger(discardLogger())).Run(allLoaded)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRestored, report.RestoredSettings)
			assert.Equal(t, tt.wantReset, report.TaxRateReset)
			assert.InDelta(t, tt.wantRate, s.TaxRate(), 1e-9)
			if tt.wantWarnings {
				assert.NotEmpty(t, report.Warnings)
			} else {
				assert.Empty(t, report.Warnings)
			}
		})
	}
}

func withSetting(key string, value any) model.Settings {
	s := model.DefaultSettings()
	s[key] = value
	return s
}

func TestRun_MissingFileRestoresLatestBackup(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(1, "")},
		Transactions:      []*model.Transaction{},
		Settings:          model.DefaultSettings(),
		NextProductID:     2,
		NextTransactionID: 1,
	})
	restorer := &fakeRestorer{
		latest: backup.Info{Name: "backup_20240315_093000", Path: "/backups/backup_20240315_093000"},
		ok:     true,
	}
	loaded := store.LoadReport{
		store.ProductsFile:     store.OutcomeLoaded,
		store.TransactionsFile: store.OutcomeSeeded,
		store.SettingsFile:     store.OutcomeLoaded,
	}

	report, err := New(s, restorer, WithLogger(discardLogger())).Run(loaded)
	require.NoError(t, err)

	assert.True(t, report.Restored)
	assert.Equal(t, []string{store.TransactionsFile}, report.MissingFiles)
	assert.Equal(t, "/backups/backup_20240315_093000", report.RestoredFrom)
	assert.Equal(t, []string{"/backups/backup_20240315_093000"}, restorer.restored)

	// Restored data is not validated.
	assert.Zero(t, report.DroppedProducts)
	assert.Len(t, s.Products(), 1)
}

func TestRun_MissingFileWithoutBackupValidates(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products:          []model.Product{product(1, "")},
		Transactions:      []*model.Transaction{},
		Settings:          model.DefaultSettings(),
		NextProductID:     2,
		NextTransactionID: 1,
	})
	restorer := &fakeRestorer{}
	loaded := store.LoadReport{
		store.ProductsFile:     store.OutcomeSeeded,
		store.TransactionsFile: store.OutcomeSeeded,
		store.SettingsFile:     store.OutcomeSeeded,
	}

	report, err := New(s, restorer, WithLogger(discardLogger())).Run(loaded)
	require.NoError(t, err)

	assert.False(t, report.Restored)
	assert.Empty(t, restorer.restored)
	assert.Len(t, report.MissingFiles, 3)
	assert.Equal(t, 1, report.DroppedProducts)
}

func TestRun_RestoreFailureIsReturned(t *testing.T) {
	s := newLoadedStore(t, store.State{Settings: model.DefaultSettings()})
	boom := errors.New("copy failed")
	restorer := &fakeRestorer{
		latest:  backup.Info{Name: "backup_20240315_093000", Path: "/b"},
		ok:      true,
		restErr: boom,
	}

	_, err := New(s, restorer, WithLogger(discardLogger())).Run(store.LoadReport{
		store.ProductsFile: store.OutcomeSeeded,
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_BackupListingErrorFallsBackToValidation(t *testing.T) {
	s := newLoadedStore(t, store.State{
		Products: []model.Product{product(1, "")},
		Settings: model.DefaultSettings(),
	})
	restorer := &fakeRestorer{listErr: errors.New("unreadable")}

	report, err := New(s, restorer, WithLogger(discardLogger())).Run(store.LoadReport{
		store.SettingsFile: store.OutcomeSeeded,
	})
	require.NoError(t, err)
	assert.False(t, report.Restored)
	assert.Equal(t, 1, report.DroppedProducts)
}

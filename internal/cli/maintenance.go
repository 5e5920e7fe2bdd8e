package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/export"
	"github.com/roach88/gpos/internal/integrity"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the integrity check and save any repairs",
		Long: `Load the data directory, repair what the integrity check finds and save.

The check drops products without a name, renumbers duplicate product ids,
drops transactions that reference unknown products, restores missing
settings and resets an out-of-range tax rate. A missing data file is
restored from the newest backup.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			report := s.m.IntegrityReport()
			if s.out.Format == "json" {
				return s.out.Success(report)
			}
			writeIntegrityReport(s.out.Writer, report)
			return nil
		},
	}
}

func writeIntegrityReport(w io.Writer, r integrity.Report) {
	if !r.Changed() && len(r.Warnings) == 0 && len(r.MissingFiles) == 0 {
		fmt.Fprintln(w, "Data is consistent.")
		return
	}
	for _, f := range r.MissingFiles {
		fmt.Fprintf(w, "Missing file: %s\n", f)
	}
	if r.Restored {
		fmt.Fprintf(w, "Restored from backup: %s\n", r.RestoredFrom)
	}
	if r.DroppedProducts > 0 {
		fmt.Fprintf(w, "Dropped %d product(s) without a name\n", r.DroppedProducts)
	}
	for _, rn := range r.Renumbered {
		fmt.Fprintf(w, "Renumbered %q from %d to %d\n", rn.Name, rn.From, rn.To)
	}
	if r.DroppedTransactions > 0 {
		fmt.Fprintf(w, "Dropped %d invalid transaction(s)\n", r.DroppedTransactions)
	}
	for _, k := range r.RestoredSettings {
		fmt.Fprintf(w, "Restored missing setting: %s\n", k)
	}
	if r.TaxRateReset {
		fmt.Fprintln(w, "Reset invalid tax rate to default")
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "save",
		Short:         "Rewrite all data files now",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if err := s.m.ForceSave(); err != nil {
				return s.out.Fail(ExitFailure, ErrCodeSaveFailed, "save failed", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]string{"saved": s.m.DataDir()})
			}
			fmt.Fprintf(s.out.Writer, "Saved %s\n", s.m.DataDir())
			return nil
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show data statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if s.out.Format == "json" {
				return s.out.Success(s.m.Statistics())
			}
			return s.m.WriteStatistics(s.out.Writer)
		},
	}
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export products and sales",
		Long: `Export products and sales. The format follows the file extension:
.txt for the text report, .xlsx for a workbook, .db or .sqlite for an
SQLite database. Use - to print the text report.

Examples:
  gpos export report.txt
  gpos export sales.xlsx
  gpos export -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if args[0] == "-" {
				if err := s.m.ExportReport(s.out.Writer); err != nil {
					return s.out.Fail(ExitFailure, ErrCodeExportFailed, "export failed", err)
				}
				return nil
			}

			format, err := s.m.ExportFile(args[0])
			if errors.Is(err, export.ErrUnknownFormat) {
				return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, "unsupported export format", err)
			}
			if err != nil {
				return s.out.Fail(ExitFailure, ErrCodeExportFailed, "export failed", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]string{"path": args[0], "format": string(format)})
			}
			fmt.Fprintf(s.out.Writer, "Exported %s (%s)\n", args[0], format)
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all products, sales and settings",
		Long: `Back up the current data, then delete every product and sale and reset
settings to their defaults. Requires --yes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if !yes {
				out := newFormatter(rootOpts, cmd)
				return out.Fail(ExitCommandError, ErrCodeConfirmMissing, "refusing to clear data without --yes", nil)
			}

			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if err := s.m.ClearAllData(); err != nil {
				return s.out.Fail(ExitFailure, ErrCodeBackupFailed, "clear failed", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]bool{"cleared": true})
			}
			fmt.Fprintln(s.out.Writer, "All data cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting all data")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/pos"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore backups",
	}
	cmd.AddCommand(newBackupCreateCommand(rootOpts))
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	cmd.AddCommand(newBackupVerifyCommand(rootOpts))
	return cmd
}

func newBackupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot the data files",
		Long: `Save pending changes, then copy the data files into a new timestamped
backup directory. Only the most recent backups are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if _, err := s.m.FlushIfDirty(); err != nil {
				return s.out.Fail(ExitFailure, ErrCodeSaveFailed, "failed to save before backup", err)
			}
			info, err := s.m.CreateBackup()
			if err != nil {
				return s.out.Fail(ExitFailure, ErrCodeBackupFailed, "backup failed", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(info)
			}
			fmt.Fprintf(s.out.Writer, "Backup created: %s\n", info.Path)
			return nil
		},
	}
}

func newBackupListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List backups, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			list, err := s.m.Backups()
			if err != nil {
				return s.out.Fail(ExitFailure, ErrCodeBackupFailed, "failed to list backups", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(s.out.Writer, "No backups found.")
				return nil
			}
			tw := tabwriter.NewWriter(s.out.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCREATED\tFILES\tID")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Name, b.Label, strings.Join(b.Files, ","), b.ID)
			}
			return tw.Flush()
		},
	}
}

func newBackupRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the data with a backup",
		Long: `Restore a backup by path, directory name or id. The current files are
backed up first; unsaved changes are discarded.

Examples:
  gpos backup restore backup_20240315_093000
  gpos backup restore pos_data/backups/backup_20240315_093000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			path, err := s.m.ResolveBackup(args[0])
			if err != nil {
				return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("backup %q not found", args[0]), err)
			}
			if err := s.m.RestoreFromBackup(path); err != nil {
				if errors.Is(err, pos.ErrBackupNotFound) {
					return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("backup %q not found", args[0]), err)
				}
				return s.out.Fail(ExitFailure, ErrCodeBackupFailed, "restore failed", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]string{"restored": path})
			}
			fmt.Fprintf(s.out.Writer, "Restored from %s\n", path)
			return nil
		},
	}
}

func newBackupVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "verify <backup>",
		Short:         "Check a backup against its recorded checksums",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			path, err := s.m.ResolveBackup(args[0])
			if err != nil {
				return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("backup %q not found", args[0]), err)
			}
			if err := s.m.VerifyBackup(path); err != nil {
				return s.out.Fail(ExitFailure, ErrCodeBackupFailed, "backup is damaged", err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]any{"path": path, "ok": true})
			}
			fmt.Fprintf(s.out.Writer, "Backup OK: %s\n", path)
			return nil
		},
	}
}

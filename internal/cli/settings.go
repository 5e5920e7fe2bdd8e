package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/model"
	"github.com/roach88/gpos/internal/pos"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change store settings",
	}
	cmd.AddCommand(newSettingsGetCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	return cmd
}

func newSettingsGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Show one setting or all of them",
		Long: `Show settings.

Examples:
  gpos settings get
  gpos settings get taxRate`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			if len(args) == 1 {
				v, ok := s.m.Setting(args[0])
				if !ok {
					return s.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("setting %q not found", args[0]), nil)
				}
				if s.out.Format == "json" {
					return s.out.Success(map[string]any{args[0]: v})
				}
				fmt.Fprintln(s.out.Writer, v)
				return nil
			}

			settings := s.m.Settings()
			if s.out.Format == "json" {
				return s.out.Success(settings)
			}
			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(s.out.Writer, "%s = %v\n", k, settings[k])
			}
			return nil
		},
	}
}

func newSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long: `Change a setting. true/false are stored as booleans and numbers as
numbers; anything else is stored as text. taxRate must be between 0 and 1.

Examples:
  gpos settings set taxRate 0.1
  gpos settings set storeName "Corner Shop"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			key, value := args[0], pos.ParseSettingValue(args[1])
			if err := s.m.UpdateSettings(model.Settings{key: value}); err != nil {
				return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("invalid value for %s", key), err)
			}
			if s.out.Format == "json" {
				return s.out.Success(map[string]any{key: value})
			}
			fmt.Fprintf(s.out.Writer, "%s = %v\n", key, value)
			return nil
		},
	}
}

package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/config"
	"github.com/roach88/gpos/internal/pos"
)

// session is one command's view of the data directory.
type session struct {
	m   *pos.Manager
	cfg config.Config
	out *OutputFormatter
	log *slog.Logger
}

// newFormatter builds the output formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger logs to w at info level, or debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveConfig layers the command-line flags over config.Load.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: opts.ConfigFile})
	if err != nil {
		return cfg, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	return cfg, nil
}

// openSession loads config, opens the data directory and runs the integrity
// check. Callers must defer closeSession.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to load config", err)
	}

	out.VerboseLog("Opening %s", cfg.DataDir)
	m, err := pos.Open(cfg, pos.WithLogger(logger))
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open data directory", err)
	}
	return &session{m: m, cfg: cfg, out: out, log: logger}, nil
}

// closeSession flushes pending changes. A failed final save turns an
// otherwise successful command into a failure.
func closeSession(s *session, errp *error) {
	if err := s.m.Close(); err != nil && *errp == nil {
		*errp = s.out.Fail(ExitFailure, ErrCodeSaveFailed, "failed to save data", err)
	}
}

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/gpos/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local JSON API with auto-save",
		Long: `Serve the data directory over a local JSON API under /api/v1.

Changes are saved in the background every autosave interval and once more
on shutdown (Ctrl-C or SIGTERM).

Examples:
  gpos serve
  gpos serve --listen 127.0.0.1:9090 --data-dir ./shop`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) (err error) {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	addr := s.cfg.ListenAddr
	if opts.Listen != "" {
		addr = opts.Listen
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("cannot listen on %s", addr), err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			s.log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	s.m.StartAutoSave(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", s.m.DataDir(), ln.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	router := server.NewRouter(server.NewHandler(s.m), s.log)
	if err := server.Serve(ctx, ln, router, s.log); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeGeneric, "server error", err)
	}
	s.log.Info("server stopped")
	return nil
}

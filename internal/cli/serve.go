package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/confstore/internal/rpc"
)

// stdio adapts the process's standard streams to one io.ReadWriter for
// the RPC loop.
type stdio struct {
	io.Reader
	io.Writer
}

// NewServeCommand creates the serve command: the privileged side of the
// cross-process split. A parent process spawns `confstore serve` with a
// pipe pair and drives the store through the RPC client; the child
// never needs file-system access of its own.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Serve store operations over stdin/stdout",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}

			// Diagnostics must not corrupt the wire; keep them on stderr.
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			dispatcher := rpc.NewDispatcher(s, logger)

			logger.Debug("serving store", "path", s.Path())
			if err := rpc.Serve(stdio{Reader: cmd.InOrStdin(), Writer: cmd.OutOrStdout()}, dispatcher); err != nil {
				return WrapExitError(ExitFailure, "serve", err)
			}
			return nil
		},
	}
}

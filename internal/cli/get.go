package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var fallback string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value at a dot path",
		Example: `  confstore get window.width
  confstore get theme --fallback '"dark"'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}

			if fallback != "" {
				var fb any
				if err := json.Unmarshal([]byte(fallback), &fb); err != nil {
					fb = fallback
				}
				return printResult(cmd.OutOrStdout(), rootOpts, s.GetDefault(args[0], fb))
			}
			return printResult(cmd.OutOrStdout(), rootOpts, s.Get(args[0]))
		},
	}

	cmd.Flags().StringVar(&fallback, "fallback", "", "value to print when the key is absent (JSON or bare string)")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewHasCommand creates the has command. It prints true or false and
// exits nonzero for a missing key, so scripts can branch on it.
func NewHasCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "has <key>",
		Short:         "Report whether a dot path exists",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}

			exists := s.Has(args[0])
			if err := printResult(cmd.OutOrStdout(), rootOpts, exists); err != nil {
				return err
			}
			if !exists {
				return &ExitError{Code: ExitFailure, Message: "key not present"}
			}
			return nil
		},
	}
}

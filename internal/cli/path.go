package cli

import (
	"github.com/spf13/cobra"
)

// NewPathCommand creates the path command.
func NewPathCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "path",
		Short:         "Print the resolved configuration file path",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), rootOpts, s.Path())
		},
	}
}

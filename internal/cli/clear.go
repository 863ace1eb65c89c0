package cli

import (
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var defaultsFile string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the whole document, then restore declared defaults",
		Long: `Replace the document with an empty mapping, then restore only the keys
present in --defaults. Without --defaults the file ends up empty.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := loadDefaults(defaultsFile)
			if err != nil {
				return err
			}

			s, err := openStoreWithDefaults(rootOpts, defaults)
			if err != nil {
				return err
			}
			if err := s.Clear(); err != nil {
				return WrapExitError(ExitFailure, "clear", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&defaultsFile, "defaults", "", "JSON file of default values restored after the wipe")

	return cmd
}

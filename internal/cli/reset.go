package cli

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/confstore/internal/store"
)

// NewResetCommand creates the reset command. Defaults come from a JSON
// file, since a CLI invocation has no in-process defaults map.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var defaultsFile string

	cmd := &cobra.Command{
		Use:   "reset <key>...",
		Short: "Restore keys to their recorded defaults",
		Long: `Restore each key to its default value from --defaults. Keys without a
recorded default, or whose default is null, are left untouched.`,
		Args:          cobra.MinimumNArgs(1),
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
			if err := s.Reset(args...); err != nil {
				return WrapExitError(ExitFailure, "reset", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&defaultsFile, "defaults", "", "JSON file of default values (required)")
	cmd.MarkFlagRequired("defaults")

	return cmd
}

func loadDefaults(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read defaults", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var defaults map[string]any
	if err := dec.Decode(&defaults); err != nil {
		return nil, WrapExitError(ExitCommandError, "parse defaults", err)
	}
	return store.Normalize(defaults).(map[string]any), nil
}

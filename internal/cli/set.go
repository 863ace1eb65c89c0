package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/confstore/internal/store"
)

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	var bulk string

	cmd := &cobra.Command{
		Use:   "set <key> <value> | set --json <mapping>",
		Short: "Store a value at a dot path",
		Long: `Store a value at a dot path. The value is parsed as JSON; input that
is not valid JSON is stored as a string. With --json, every (path,
value) pair of the mapping is applied in one commit.`,
		Example: `  confstore set theme '"dark"'
  confstore set window.width 1024
  confstore set --json '{"a": 1, "b.c": true}'`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(rootOpts)
			if err != nil {
				return err
			}

			if bulk != "" {
				if len(args) != 0 {
					return WrapExitError(ExitCommandError, "set", fmt.Errorf("--json takes no positional arguments"))
				}
				dec := json.NewDecoder(strings.NewReader(bulk))
				dec.UseNumber()
				var entries map[string]any
				if err := dec.Decode(&entries); err != nil {
					return WrapExitError(ExitCommandError, "parse --json mapping", err)
				}
				entries = store.Normalize(entries).(map[string]any)
				if err := s.SetAll(entries); err != nil {
					return WrapExitError(ExitFailure, "set", err)
				}
				return nil
			}

			if len(args) != 2 {
				return WrapExitError(ExitCommandError, "set", fmt.Errorf("expected <key> <value>"))
			}
			if err := s.Set(args[0], parseValue(args[1])); err != nil {
				return WrapExitError(ExitFailure, "set", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bulk, "json", "", "mapping of dot paths to values, applied in one commit")

	return cmd
}

// parseValue interprets raw as JSON, falling back to a bare string.
// Numbers decode through json.Number so integers stay integral.
func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return store.Normalize(v)
}

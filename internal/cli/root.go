// Package cli implements the confstore command line: a thin host over
// the store engine for inspecting and mutating a configuration file,
// plus a serve mode that exposes the store to an unprivileged child
// process over stdio.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/confstore/internal/schema"
	"github.com/roach88/confstore/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Dir        string
	Name       string
	Ext        string
	Format     string // file serializer: "json" | "jsonc" | "yaml"
	SchemaFile string
	Output     string // command output: "text" | "json"
	Verbose    bool
}

// ValidFormats are the accepted file serializer names.
var ValidFormats = []string{"json", "jsonc", "yaml"}

// ValidOutputs are the accepted command output modes.
var ValidOutputs = []string{"text", "json"}

// NewRootCommand creates the root command for the confstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "confstore",
		Short: "File-backed configuration store",
		Long: `confstore owns a single configuration document persisted atomically to
one file, addressed by dot paths, optionally validated against a CUE
schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !slices.Contains(ValidOutputs, opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, ValidOutputs)
			}
			if opts.Verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "storage directory (default: working directory)")
	cmd.PersistentFlags().StringVar(&opts.Name, "name", store.DefaultName, "config file base name")
	cmd.PersistentFlags().StringVar(&opts.Ext, "ext", "", "config file extension (default: matches --format)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "file format (json|jsonc|yaml)")
	cmd.PersistentFlags().StringVar(&opts.SchemaFile, "schema", "", "CUE schema file validating every write")
	cmd.PersistentFlags().StringVar(&opts.Output, "output", "text", "output mode (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewHasCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewPathCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// openStore builds a store from the global flags.
func openStore(opts *RootOptions) (*store.Store, error) {
	return openStoreWithDefaults(opts, nil)
}

// openStoreWithDefaults additionally records default values for the
// commands that restore them (reset, clear).
func openStoreWithDefaults(opts *RootOptions, defaults map[string]any) (*store.Store, error) {
	storeOpts := store.Options{
		Dir:      opts.Dir,
		Name:     opts.Name,
		Ext:      opts.Ext,
		Defaults: defaults,
	}

	var serializer store.Serializer
	switch opts.Format {
	case "jsonc":
		serializer = store.JSONCSerializer()
	case "yaml":
		serializer = store.YAMLSerializer()
	default:
		serializer = store.JSONSerializer()
	}
	storeOpts.Serializer = &serializer

	if storeOpts.Ext == "" {
		switch opts.Format {
		case "yaml":
			storeOpts.Ext = ".yaml"
		default:
			storeOpts.Ext = store.DefaultExt
		}
	}

	if opts.SchemaFile != "" {
		source, err := os.ReadFile(opts.SchemaFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read schema", err)
		}
		sch, err := schema.Compile(string(source))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "compile schema", err)
		}
		storeOpts.Schema = sch
	}

	s, err := store.Open(storeOpts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return s, nil
}

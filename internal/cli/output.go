package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/confstore/internal/canonicaljson"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // operation failure (rejected write, schema violation)
	ExitCommandError = 2 // command error (bad flags, unreadable schema file)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors without a
// code map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope for --output json.
type CLIResponse struct {
	Status string `json:"status"` // "ok" or "error"
	Data   any    `json:"data"`
	Error  string `json:"error,omitempty"`
}

// printResult renders a command result in the requested output mode.
// In text mode, document values render as canonical JSON; strings print
// bare.
func printResult(w io.Writer, opts *RootOptions, data any) error {
	if opts.Output == "json" {
		return json.NewEncoder(w).Encode(CLIResponse{Status: "ok", Data: data})
	}
	if s, ok := data.(string); ok {
		fmt.Fprintln(w, s)
		return nil
	}
	rendered, err := canonicaljson.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(rendered))
	return nil
}

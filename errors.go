package prelude

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents bad caller input detected before any external
// tool is invoked. It always maps to exit code 1.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a new ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError checks if the error is or wraps a ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return err != nil && errors.As(err, &vErr)
}

// CommandError represents an external tool that ran and exited non-zero.
// It carries the full invocation context so callers can surface diagnostics
// without re-running anything.
type CommandError struct {
	CommandLine string
	ExitCode    int
	Stdout      string
	Stderr      string
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q exited with code %d", e.CommandLine, e.ExitCode)
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", strings.TrimSpace(e.Stderr))
	}
	return b.String()
}

// NewCommandError creates a new CommandError
func NewCommandError(commandLine string, exitCode int, stdout, stderr string) *CommandError {
	return &CommandError{
		CommandLine: commandLine,
		ExitCode:    exitCode,
		Stdout:      stdout,
		Stderr:      stderr,
	}
}

// IsCommandError checks if the error is or wraps a CommandError
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return err != nil && errors.As(err, &cmdErr)
}

// AsCommandError extracts a CommandError from an error chain, if present.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if err != nil && errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}

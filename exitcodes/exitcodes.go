// Package exitcodes defines the standard exit codes used by prelude.
package exitcodes

// Exit code constants used by prelude
//
// * Success (0): the tool completed its work
// * Failure (1): input validation failed, an external tool failed, or an
//   unexpected error was caught at the top level
//
// The lint and format wrappers (shellcheck, shfmt-check, yapf-check) are the
// exception: they propagate the wrapped tool's own exit code unchanged.
const (
	Success = 0
	Failure = 1
)

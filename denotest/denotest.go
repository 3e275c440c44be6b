// Package denotest wraps `deno test` invocations for build recipes.
package denotest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/acarl005/stripansi"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

const (
	DefaultDenoBinary = "deno"

	TestCommand  = "test"
	FilterFlag   = "--filter"
	IgnoreFlag   = "--ignore"
	ParallelFlag = "--parallel"
	WatchFlag    = "--watch"
)

// Config describes one test run. It exists only for the duration of a single
// invocation and is discarded after the downstream command is built.
type Config struct {
	// Inputs are the test files or directories to run, in order. Each must
	// exist on disk; they are resolved to absolute paths before anything
	// is invoked.
	Inputs []string
	// Filter is forwarded verbatim when non-empty.
	Filter string
	// Ignore entries are forwarded verbatim, order preserved.
	Ignore []string
	// Parallel and Watch are forwarded switches; the adapter itself stays
	// synchronous.
	Parallel bool
	Watch    bool
	// DenoBinary selects the executable. Empty means DefaultDenoBinary.
	DenoBinary string
}

// Adapter translates a Config into a single blocking deno invocation.
type Adapter struct {
	runner proc.Runner
	stdout io.Writer
	stderr io.Writer
}

// New creates a new Adapter
func New(runner proc.Runner, stdout, stderr io.Writer) *Adapter {
	return &Adapter{
		runner: runner,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run resolves and validates the inputs, invokes deno test once, and
// reports the outcome. Validation failures return before any invocation.
func (a *Adapter) Run(ctx context.Context, cfg Config) error {
	inputs, err := resolveInputs(cfg.Inputs)
	if err != nil {
		return err
	}

	binary := cfg.DenoBinary
	if binary == "" {
		binary = DefaultDenoBinary
	}
	cmd := proc.Command{
		Name: binary,
		Args: buildArgs(cfg, inputs),
	}

	result, err := a.runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", binary, err)
	}

	if result.ExitCode != 0 {
		a.reportFailure(cmd, result)
		return prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}

	if result.Stdout != "" {
		fmt.Fprintln(a.stdout, result.Stdout)
	}
	fmt.Fprintln(a.stdout, "Tests completed successfully.")
	return nil
}

// resolveInputs converts every input to an absolute path and verifies it
// exists. The first missing path aborts the run with no external call made.
func resolveInputs(inputs []string) ([]string, error) {
	resolved := make([]string, 0, len(inputs))
	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve input path %q: %w", input, err)
		}
		if _, err := os.Stat(absPath); err != nil {
			return nil, prelude.NewValidationError("input path not found: %s", absPath)
		}
		resolved = append(resolved, absPath)
	}
	return resolved, nil
}

// buildArgs assembles the deno argument list in its contractual order:
// test command, filter, ignores, parallel, watch, then the resolved inputs.
func buildArgs(cfg Config, inputs []string) []string {
	args := []string{TestCommand}

	if cfg.Filter != "" {
		args = append(args, FilterFlag, cfg.Filter)
	}

	for _, ignore := range cfg.Ignore {
		args = append(args, fmt.Sprintf("%s=%s", IgnoreFlag, ignore))
	}

	if cfg.Parallel {
		args = append(args, ParallelFlag)
	}

	if cfg.Watch {
		args = append(args, WatchFlag)
	}

	return append(args, inputs...)
}

func (a *Adapter) reportFailure(cmd proc.Command, result proc.Result) {
	fmt.Fprintln(a.stderr, "Error running deno test:")
	fmt.Fprintf(a.stderr, "Command: %s\n", cmd)
	fmt.Fprintf(a.stderr, "Exit code: %d\n", result.ExitCode)
	if result.Stdout != "" {
		fmt.Fprintf(a.stderr, "stdout: %s\n", stripansi.Strip(result.Stdout))
	}
	if result.Stderr != "" {
		fmt.Fprintf(a.stderr, "stderr: %s\n", stripansi.Strip(result.Stderr))
	}
}

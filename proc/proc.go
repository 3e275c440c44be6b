// Package proc provides scoped synchronous execution of external tools.
//
// A non-zero exit from the child is not an error: it is reported through
// Result.ExitCode so callers branch on it explicitly. The error return is
// reserved for invocations that never ran (missing binary, canceled context).
package proc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	// Name is the executable to run, resolved via PATH when not absolute.
	Name string
	// Args are passed verbatim, in order.
	Args []string
	// Dir is the working directory for the child. Empty means inherit.
	Dir string
	// Env is the child's environment. Nil means inherit the parent's.
	Env []string
	// InheritStdio streams the child's stdout/stderr to the parent instead
	// of capturing them. Used by tools whose output is the user's to read
	// live (lint diffs, docker push progress).
	InheritStdio bool
}

// String renders the full command line for diagnostics.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Result holds the outcome of a completed invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

var _ Runner = (*ExecRunner)(nil)

// ExecRunner implements Runner using os/exec. The call blocks until the
// child exits; no timeout is imposed.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdoutBuf, stderrBuf bytes.Buffer
	if cmd.InheritStdio {
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = &stdoutBuf
		c.Stderr = &stderrBuf
	}

	err := c.Run()
	result := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if err != nil {
		exitErr := &exec.ExitError{}
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

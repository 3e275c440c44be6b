// Package lint wraps the source-tree lint and format checkers. Each wrapper
// runs its tool from the sources root with stdio inherited, so diffs and
// findings reach the caller live, and propagates the tool's exit code
// unchanged.
package lint

import (
	"context"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

const shellGlob = "**/*.sh"

// Google Shell Style Guide defaults, applied when no editorconfig is given.
// See: https://google.github.io/styleguide/shellguide.html
var shfmtStyleDefaults = []string{"--indent", "2", "--binary-next-line", "--case-indent"}

// Checker runs lint tools against a sources tree.
type Checker struct {
	runner proc.Runner
}

// New creates a new Checker
func New(runner proc.Runner) *Checker {
	return &Checker{runner: runner}
}

// Shellcheck runs shellcheck over every shell script found under srcsRoot.
func (c *Checker) Shellcheck(ctx context.Context, srcsRoot string) error {
	files, err := shellFiles(srcsRoot)
	if err != nil {
		return err
	}

	return c.run(ctx, proc.Command{
		Name:         "shellcheck",
		Args:         files,
		Dir:          srcsRoot,
		InheritStdio: true,
	})
}

// ShfmtCheck runs a shfmt format check over srcsRoot. An empty editorConfig
// selects the Google Shell Style Guide defaults.
func (c *Checker) ShfmtCheck(ctx context.Context, srcsRoot, editorConfig string) error {
	return c.run(ctx, proc.Command{
		Name:         "shfmt",
		Args:         shfmtArgs(srcsRoot, editorConfig),
		Dir:          srcsRoot,
		InheritStdio: true,
	})
}

// YapfCheck runs a yapf format check over srcsRoot.
func (c *Checker) YapfCheck(ctx context.Context, srcsRoot string) error {
	return c.run(ctx, proc.Command{
		Name:         "yapf",
		Args:         []string{"--diff", "--recursive", srcsRoot},
		Dir:          srcsRoot,
		InheritStdio: true,
	})
}

func (c *Checker) run(ctx context.Context, cmd proc.Command) error {
	result, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return errors.Wrapf(err, "failed to run %s", cmd.Name)
	}
	if result.ExitCode != 0 {
		return prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}
	return nil
}

// shellFiles returns the relative paths of all shell scripts under root,
// in sorted order.
func shellFiles(root string) ([]string, error) {
	files, err := doublestar.Glob(os.DirFS(root), shellGlob)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to glob %s under %s", shellGlob, root)
	}
	sort.Strings(files)
	return files, nil
}

func shfmtArgs(srcsRoot, editorConfig string) []string {
	args := []string{"--list", "--diff"}
	if editorConfig == "" {
		args = append(args, shfmtStyleDefaults...)
	}
	return append(args, srcsRoot)
}

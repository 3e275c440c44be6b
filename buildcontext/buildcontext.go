// Package buildcontext assembles an isolated context tree containing all
// sources needed to build a target with Buck2.
package buildcontext

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

// daemonUUIDEnvVar is scrubbed from the buck2 bxl environment. Removing it
// prevents a buck2-in-buck2 recursion check from rejecting the nested call.
const daemonUUIDEnvVar = "BUCK2_DAEMON_UUID"

// Config describes one context-tree build.
type Config struct {
	// BxlFile and BxlScript identify the helper BXL entry point used to
	// expand deps into their input sources.
	BxlFile   string
	BxlScript string
	// Srcs are SRC=DST entries. An empty DST means the directory of SRC,
	// or "." when SRC has none.
	Srcs []string
	// Deps are build targets whose input sources get pulled into the tree.
	Deps []string
	// OutPath is where the finished tree lands.
	OutPath string
}

// Builder stages and assembles context trees.
type Builder struct {
	runner  proc.Runner
	stderr  io.Writer
	environ func() []string
}

// New creates a new Builder
func New(runner proc.Runner, stderr io.Writer) *Builder {
	return &Builder{
		runner:  runner,
		stderr:  stderr,
		environ: os.Environ,
	}
}

// Build expands any deps through buck2, stages every source into a scratch
// root, and moves the finished root to cfg.OutPath.
func (b *Builder) Build(ctx context.Context, cfg Config) error {
	srcs := append([]string{}, cfg.Srcs...)

	if len(cfg.Deps) > 0 {
		depSrcs, err := b.sourcesFromDeps(ctx, cfg)
		if err != nil {
			return err
		}
		srcs = append(srcs, depSrcs...)
	}

	specs := make([]SrcSpec, 0, len(srcs))
	for _, src := range srcs {
		spec, err := ParseSrcSpec(src)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	tempDir, err := os.MkdirTemp("", "build-context-")
	if err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(tempDir)

	rootDir := filepath.Join(tempDir, "root")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create staging root")
	}

	for _, spec := range specs {
		if err := stage(spec, rootDir); err != nil {
			return err
		}
	}

	return moveTree(rootDir, cfg.OutPath)
}

// sourcesFromDeps asks buck2 to expand the deps into their input sources.
// Each reported path p becomes a SRC=DST entry p=dir(p).
func (b *Builder) sourcesFromDeps(ctx context.Context, cfg Config) ([]string, error) {
	args := []string{"bxl", fmt.Sprintf("%s:%s", cfg.BxlFile, cfg.BxlScript), "--"}
	for _, dep := range cfg.Deps {
		args = append(args, "--dep", dep)
	}

	cmd := proc.Command{
		Name: "buck2",
		Args: args,
		Env:  scrubEnv(b.environ()),
	}
	result, err := b.runner.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run buck2 bxl")
	}
	if result.ExitCode != 0 {
		fmt.Fprint(b.stderr, result.Stderr)
		return nil, prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}

	var srcs []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if line == "" {
			continue
		}
		srcs = append(srcs, fmt.Sprintf("%s=%s", line, filepath.Dir(line)))
	}
	return srcs, nil
}

// scrubEnv returns env without the buck2 daemon marker.
func scrubEnv(env []string) []string {
	scrubbed := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, daemonUUIDEnvVar+"=") {
			continue
		}
		scrubbed = append(scrubbed, kv)
	}
	return scrubbed
}

// SrcSpec is one parsed SRC=DST entry.
type SrcSpec struct {
	Src string
	Dst string
}

// ParseSrcSpec splits a SRC=DST argument. An empty DST defaults to the
// directory of SRC.
func ParseSrcSpec(arg string) (SrcSpec, error) {
	src, dst, ok := strings.Cut(arg, "=")
	if !ok {
		return SrcSpec{}, prelude.NewValidationError("invalid src %q: expected SRC=DST", arg)
	}
	if dst == "" {
		dst = filepath.Dir(src)
	}
	return SrcSpec{Src: src, Dst: dst}, nil
}

// stage copies one source entry into place under rootDir.
func stage(spec SrcSpec, rootDir string) error {
	dstDir := filepath.Join(rootDir, spec.Dst)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dstDir)
	}

	info, err := os.Lstat(spec.Src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat source %s", spec.Src)
	}

	target := filepath.Join(dstDir, filepath.Base(spec.Src))
	if info.IsDir() {
		return copyTree(spec.Src, target)
	}
	return copyEntry(spec.Src, target, info)
}

// copyTree copies a directory tree, preserving symlinks.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyEntry(path, target, info)
	})
}

// copyEntry copies a single file or recreates a symlink.
func copyEntry(src, dst string, info fs.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return errors.Wrapf(err, "failed to read symlink %s", src)
		}
		return os.Symlink(link, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	return out.Close()
}

// moveTree renames the staged root into place, falling back to a copy when
// the rename crosses filesystems.
func moveTree(rootDir, outPath string) error {
	if err := os.Rename(rootDir, outPath); err == nil {
		return nil
	}
	if err := copyTree(rootDir, outPath); err != nil {
		return errors.Wrapf(err, "failed to move context tree to %s", outPath)
	}
	return nil
}

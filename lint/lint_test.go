package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/env sh\n"), 0o755))
}

func TestShellFilesFindsScriptsRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "top.sh")
	writeFile(t, root, "nested/deep/run.sh")
	writeFile(t, root, "nested/readme.md")

	files, err := shellFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/deep/run.sh", "top.sh"}, files)
}

func TestShellcheckCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.sh")
	writeFile(t, root, "b.sh")

	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)
	require.NoError(t, New(fake).Shellcheck(context.Background(), root))

	require.Equal(t, 1, fake.CallCount())
	cmd := fake.Commands[0]
	assert.Equal(t, "shellcheck", cmd.Name)
	assert.Equal(t, []string{"a.sh", "b.sh"}, cmd.Args)
	assert.Equal(t, root, cmd.Dir)
	assert.True(t, cmd.InheritStdio)
}

func TestShfmtArgsDefaultsToGoogleStyle(t *testing.T) {
	assert.Equal(t,
		[]string{"--list", "--diff", "--indent", "2", "--binary-next-line", "--case-indent", "src"},
		shfmtArgs("src", ""))
}

func TestShfmtArgsWithEditorConfig(t *testing.T) {
	assert.Equal(t,
		[]string{"--list", "--diff", "src"},
		shfmtArgs("src", ".editorconfig"))
}

func TestShfmtCheckCommand(t *testing.T) {
	root := t.TempDir()
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)

	require.NoError(t, New(fake).ShfmtCheck(context.Background(), root, ""))

	cmd := fake.Commands[0]
	assert.Equal(t, "shfmt", cmd.Name)
	assert.Equal(t, root, cmd.Dir)
	assert.True(t, cmd.InheritStdio)
}

func TestYapfCheckCommand(t *testing.T) {
	root := t.TempDir()
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)

	require.NoError(t, New(fake).YapfCheck(context.Background(), root))

	cmd := fake.Commands[0]
	assert.Equal(t, "yapf", cmd.Name)
	assert.Equal(t, []string{"--diff", "--recursive", root}, cmd.Args)
	assert.Equal(t, root, cmd.Dir)
}

func TestToolExitCodePropagates(t *testing.T) {
	root := t.TempDir()
	fake := (&proc.FakeRunner{}).Stub(proc.Result{ExitCode: 3}, nil)

	err := New(fake).YapfCheck(context.Background(), root)
	require.Error(t, err)

	cmdErr, ok := prelude.AsCommandError(err)
	require.True(t, ok)
	assert.Equal(t, 3, cmdErr.ExitCode)
}

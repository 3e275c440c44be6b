package proc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	cmd := Command{Name: "deno", Args: []string{"test", "--parallel", "a.ts"}}
	assert.Equal(t, "deno test --parallel a.ts", cmd.String())
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	runner := NewExecRunner()
	result, err := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
}

func TestExecRunnerNonZeroExitIsNotAnError(t *testing.T) {
	runner := NewExecRunner()
	result, err := runner.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := NewExecRunner()
	_, err := runner.Run(context.Background(), Command{Name: "definitely-not-a-real-binary"})
	require.Error(t, err)
}

func TestExecRunnerWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := NewExecRunner()
	result, err := runner.Run(context.Background(), Command{
		Name: "pwd",
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}

func TestFakeRunnerRecordsAndReplays(t *testing.T) {
	fake := (&FakeRunner{}).
		Stub(Result{Stdout: "first"}, nil).
		Stub(Result{ExitCode: 2}, nil)

	r1, err := fake.Run(context.Background(), Command{Name: "a"})
	require.NoError(t, err)
	r2, err := fake.Run(context.Background(), Command{Name: "b"})
	require.NoError(t, err)
	r3, err := fake.Run(context.Background(), Command{Name: "c"})
	require.NoError(t, err)

	assert.Equal(t, "first", r1.Stdout)
	assert.Equal(t, 2, r2.ExitCode)
	assert.Equal(t, 2, r3.ExitCode, "last stub repeats once exhausted")
	assert.Equal(t, 3, fake.CallCount())
	assert.Equal(t, []string{"a", "b", "c"}, fake.CommandLines())
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/exitcodes"
)

func TestNewAppCommands(t *testing.T) {
	app := newApp()

	var names []string
	for _, command := range app.Commands {
		names = append(names, command.Name)
	}
	assert.Equal(t, []string{
		"deno-test",
		"git-info",
		"shellcheck",
		"shfmt-check",
		"yapf-check",
		"image-push",
		"artifact-publish",
		"build-context",
	}, names)

	require.NotNil(t, app.ExitErrHandler)
	require.NotNil(t, app.Before)
}

func TestPropagateToolExit(t *testing.T) {
	err := propagateToolExit(prelude.NewCommandError("shfmt --list --diff src", 3, "", ""))
	require.Error(t, err)

	exitErr, ok := err.(interface{ ExitCode() int })
	require.True(t, ok)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestPropagateToolExitPassesOtherErrorsThrough(t *testing.T) {
	err := propagateToolExit(prelude.NewValidationError("missing required argument: srcs_root"))
	assert.True(t, prelude.IsValidationError(err))

	assert.NoError(t, propagateToolExit(nil))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, exitcodes.Success)
	assert.Equal(t, 1, exitcodes.Failure)
}

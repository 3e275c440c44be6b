package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/buildcontext"
	"github.com/systeminit/prelude/denotest"
	"github.com/systeminit/prelude/exitcodes"
	"github.com/systeminit/prelude/flags"
	"github.com/systeminit/prelude/gitinfo"
	"github.com/systeminit/prelude/imagepush"
	"github.com/systeminit/prelude/lint"
	"github.com/systeminit/prelude/logging"
	"github.com/systeminit/prelude/proc"
	"github.com/systeminit/prelude/publish"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		os.Exit(exitcodes.Failure)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "prelude"
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Usage = "Build prelude tooling"
	app.Description = "Small wrappers around the external tools our build recipes shell out to"
	app.Flags = flags.GlobalFlags
	app.Before = setupLogging
	app.ExitErrHandler = handleExitErr
	app.Commands = []*cli.Command{
		{
			Name:   "deno-test",
			Usage:  "Run Deno tests",
			Flags:  flags.DenoTestFlags,
			Action: denoTestAction,
		},
		{
			Name:      "git-info",
			Usage:     "Generate git metadata as JSON",
			ArgsUsage: "[output]",
			Action:    gitInfoAction,
		},
		{
			Name:      "shellcheck",
			Usage:     "Run shellcheck on a sources tree",
			ArgsUsage: "srcs_root",
			Action:    shellcheckAction,
		},
		{
			Name:      "shfmt-check",
			Usage:     "Run a shfmt check",
			ArgsUsage: "srcs_root",
			Flags:     flags.ShfmtCheckFlags,
			Action:    shfmtCheckAction,
		},
		{
			Name:      "yapf-check",
			Usage:     "Run a yapf check",
			ArgsUsage: "srcs_root",
			Action:    yapfCheckAction,
		},
		{
			Name:   "image-push",
			Usage:  "Push a loaded container image via its tags",
			Flags:  flags.ImagePushFlags,
			Action: imagePushAction,
		},
		{
			Name:   "artifact-publish",
			Usage:  "Publish an artifact and its metadata to a bucket",
			Flags:  flags.ArtifactPublishFlags,
			Action: artifactPublishAction,
		},
		{
			Name:      "build-context",
			Usage:     "Assemble an isolated source tree for a Buck2 target",
			ArgsUsage: "out_path",
			Flags:     flags.BuildContextFlags,
			Action:    buildContextAction,
		},
	}
	return app
}

// setupLogging installs the process-wide logger, tagged with a run ID so
// interleaved CI output stays attributable.
func setupLogging(ctx *cli.Context) error {
	level := logging.LevelFromString(ctx.String(flags.LogLevel.Name))
	runID := uuid.New().String()[:8]
	slog.SetDefault(logging.New(level).With("run_id", runID))
	return nil
}

// handleExitErr maps errors to process exit codes: anything that is not
// already an ExitCoder is reported as "Error: <message>" with exit code 1.
func handleExitErr(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	cli.HandleExitCoder(cli.Exit(fmt.Sprintf("Error: %s", err), exitcodes.Failure))
}

func denoTestAction(ctx *cli.Context) error {
	cfg := denotest.Config{
		Inputs:     ctx.StringSlice(flags.Input.Name),
		Filter:     ctx.String(flags.Filter.Name),
		Ignore:     ctx.StringSlice(flags.Ignore.Name),
		Parallel:   ctx.Bool(flags.Parallel.Name),
		Watch:      ctx.Bool(flags.Watch.Name),
		DenoBinary: ctx.String(flags.DenoBinary.Name),
	}
	slog.Debug("Running deno tests", "inputs", cfg.Inputs, "filter", cfg.Filter)

	adapter := denotest.New(proc.NewExecRunner(), os.Stdout, os.Stderr)
	err := adapter.Run(ctx.Context, cfg)
	if prelude.IsCommandError(err) {
		// Diagnostics were already written to stderr by the adapter.
		return cli.Exit("", exitcodes.Failure)
	}
	return err
}

func gitInfoAction(ctx *cli.Context) error {
	output := ctx.Args().First()
	if output == "" {
		output = gitinfo.StdoutSentinel
	}

	generator := gitinfo.New(proc.NewExecRunner())
	record, err := generator.Collect(ctx.Context)
	if err != nil {
		return err
	}
	return gitinfo.Write(record, output, os.Stdout)
}

func shellcheckAction(ctx *cli.Context) error {
	srcsRoot, err := srcsRootArg(ctx)
	if err != nil {
		return err
	}
	return propagateToolExit(lint.New(proc.NewExecRunner()).Shellcheck(ctx.Context, srcsRoot))
}

func shfmtCheckAction(ctx *cli.Context) error {
	srcsRoot, err := srcsRootArg(ctx)
	if err != nil {
		return err
	}
	editorConfig := ctx.String(flags.EditorConfig.Name)
	return propagateToolExit(lint.New(proc.NewExecRunner()).ShfmtCheck(ctx.Context, srcsRoot, editorConfig))
}

func yapfCheckAction(ctx *cli.Context) error {
	srcsRoot, err := srcsRootArg(ctx)
	if err != nil {
		return err
	}
	return propagateToolExit(lint.New(proc.NewExecRunner()).YapfCheck(ctx.Context, srcsRoot))
}

func imagePushAction(ctx *cli.Context) error {
	pusher := imagepush.New(proc.NewExecRunner(), os.Stdout)
	return pusher.Push(
		ctx.Context,
		ctx.String(flags.ArtifactFile.Name),
		ctx.String(flags.TagMetadataFile.Name),
		ctx.String(flags.LabelMetadataFile.Name),
	)
}

func artifactPublishAction(ctx *cli.Context) error {
	slog.Debug("Publishing artifact",
		"family", ctx.String(flags.Family.Name),
		"variant", ctx.String(flags.Variant.Name))

	publisher := publish.New(proc.NewExecRunner(), os.Stdout)
	return publisher.Publish(
		ctx.Context,
		ctx.String(flags.ArtifactFile.Name),
		ctx.String(flags.MetadataFile.Name),
		ctx.String(flags.Destination.Name),
	)
}

func buildContextAction(ctx *cli.Context) error {
	outPath := ctx.Args().First()
	if outPath == "" {
		return prelude.NewValidationError("missing required argument: out_path")
	}

	builder := buildcontext.New(proc.NewExecRunner(), os.Stderr)
	return builder.Build(ctx.Context, buildcontext.Config{
		BxlFile:   ctx.String(flags.BxlFile.Name),
		BxlScript: ctx.String(flags.BxlScript.Name),
		Srcs:      ctx.StringSlice(flags.Src.Name),
		Deps:      ctx.StringSlice(flags.Dep.Name),
		OutPath:   outPath,
	})
}

// srcsRootArg reads the required positional sources-root argument.
func srcsRootArg(ctx *cli.Context) (string, error) {
	srcsRoot := ctx.Args().First()
	if srcsRoot == "" {
		return "", prelude.NewValidationError("missing required argument: srcs_root")
	}
	return srcsRoot, nil
}

// propagateToolExit converts a lint tool failure into that tool's own exit
// code; the tool's findings already went to the inherited stdio.
func propagateToolExit(err error) error {
	if cmdErr, ok := prelude.AsCommandError(err); ok {
		return cli.Exit("", cmdErr.ExitCode)
	}
	return err
}

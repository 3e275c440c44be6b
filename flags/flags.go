// Package flags defines the CLI flags for every prelude subcommand.
package flags

import (
	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "PRELUDE"

// prefixEnvVar returns the env var binding for a flag, e.g. PRELUDE_LOG_LEVEL.
func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// Global flags, attached to the app rather than any one subcommand.
var (
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
)

// deno-test flags
var (
	Input = &cli.StringSliceFlag{
		Name:     "input",
		Required: true,
		EnvVars:  prefixEnvVar("INPUT"),
		Usage:    "Test file or directory to run (can be specified multiple times)",
	}
	Filter = &cli.StringFlag{
		Name:    "filter",
		EnvVars: prefixEnvVar("FILTER"),
		Usage:   "Run tests with this string or pattern in the test name",
	}
	Ignore = &cli.StringSliceFlag{
		Name:    "ignore",
		EnvVars: prefixEnvVar("IGNORE"),
		Usage:   "File or directory to ignore (can be specified multiple times)",
	}
	Parallel = &cli.BoolFlag{
		Name:    "parallel",
		EnvVars: prefixEnvVar("PARALLEL"),
		Usage:   "Run tests in parallel",
	}
	Watch = &cli.BoolFlag{
		Name:    "watch",
		EnvVars: prefixEnvVar("WATCH"),
		Usage:   "Watch for file changes and restart tests",
	}
	DenoBinary = &cli.StringFlag{
		Name:    "deno-binary",
		Value:   "deno",
		EnvVars: prefixEnvVar("DENO_BINARY"),
		Usage:   "Path to the deno binary to use for running tests",
	}
)

// shfmt-check flags
var (
	EditorConfig = &cli.StringFlag{
		Name:    "editorconfig",
		EnvVars: prefixEnvVar("EDITORCONFIG"),
		Usage:   "Path for an .editorconfig configuration file",
	}
)

// image-push flags
var (
	ArtifactFile = &cli.StringFlag{
		Name:     "artifact-file",
		Required: true,
		EnvVars:  prefixEnvVar("ARTIFACT_FILE"),
		Usage:    "Path to the artifact file",
	}
	TagMetadataFile = &cli.StringFlag{
		Name:     "tag-metadata-file",
		Required: true,
		EnvVars:  prefixEnvVar("TAG_METADATA_FILE"),
		Usage:    "Path to the tag metadata JSON file",
	}
	LabelMetadataFile = &cli.StringFlag{
		Name:     "label-metadata-file",
		Required: true,
		EnvVars:  prefixEnvVar("LABEL_METADATA_FILE"),
		Usage:    "Path to the label metadata JSON file",
	}
)

// artifact-publish flags
var (
	MetadataFile = &cli.StringFlag{
		Name:     "metadata-file",
		Required: true,
		EnvVars:  prefixEnvVar("METADATA_FILE"),
		Usage:    "Path to the metadata of the artifact to be actioned on",
	}
	Family = &cli.StringFlag{
		Name:     "family",
		Required: true,
		EnvVars:  prefixEnvVar("FAMILY"),
		Usage:    "Family of the artifact",
	}
	Variant = &cli.StringFlag{
		Name:     "variant",
		Required: true,
		EnvVars:  prefixEnvVar("VARIANT"),
		Usage:    "Variant of the artifact",
	}
	Destination = &cli.StringFlag{
		Name:     "destination",
		Required: true,
		EnvVars:  prefixEnvVar("DESTINATION"),
		Usage:    "Destination bucket URL for the artifact",
	}
)

// build-context flags
var (
	BxlFile = &cli.StringFlag{
		Name:     "bxl-file",
		Required: true,
		EnvVars:  prefixEnvVar("BXL_FILE"),
		Usage:    "Path to helper BXL file",
	}
	BxlScript = &cli.StringFlag{
		Name:     "bxl-script",
		Required: true,
		EnvVars:  prefixEnvVar("BXL_SCRIPT"),
		Usage:    "BXL script to invoke",
	}
	Src = &cli.StringSliceFlag{
		Name:    "src",
		EnvVars: prefixEnvVar("SRC"),
		Usage:   "Add a source into the source tree (SRC=DST)",
	}
	Dep = &cli.StringSliceFlag{
		Name:    "dep",
		EnvVars: prefixEnvVar("DEP"),
		Usage:   "Add all dependent input sources into the source tree",
	}
)

var (
	GlobalFlags = []cli.Flag{LogLevel}

	DenoTestFlags = []cli.Flag{Input, Filter, Ignore, Parallel, Watch, DenoBinary}

	ShfmtCheckFlags = []cli.Flag{EditorConfig}

	ImagePushFlags = []cli.Flag{ArtifactFile, TagMetadataFile, LabelMetadataFile}

	ArtifactPublishFlags = []cli.Flag{ArtifactFile, MetadataFile, Family, Variant, Destination}

	BuildContextFlags = []cli.Flag{BxlFile, BxlScript, Src, Dep}
)

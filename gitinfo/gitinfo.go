// Package gitinfo assembles a build-metadata record from the local git
// repository: commit hashes, a dirty flag, and timestamp-derived version
// strings.
package gitinfo

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

// Field names of the emitted record.
const (
	KeyAbbreviatedCommitHash  = "abbreviated_commit_hash"
	KeyCalVer                 = "cal_ver"
	KeyArtifactVer            = "artifact_ver"
	KeyCommitterDateStrict    = "committer_date_strict_iso8601"
	KeyCommitterDateTimestamp = "committer_date_timestamp"
	KeyCommitHash             = "commit_hash"
	KeyIsDirty                = "is_dirty"
)

// StdoutSentinel selects stdout as the output destination.
const StdoutSentinel = "-"

// Record is the flat field-to-value mapping emitted as JSON. Marshaling a
// map keeps the keys lexicographically sorted regardless of construction
// order.
type Record map[string]any

// Generator runs the git queries and derives the computed fields.
type Generator struct {
	runner proc.Runner
	now    func() time.Time
}

// New creates a new Generator using the wall clock.
func New(runner proc.Runner) *Generator {
	return NewWithClock(runner, time.Now)
}

// NewWithClock creates a Generator with an injectable clock, used by tests
// to pin the dirty-tree timestamps.
func NewWithClock(runner proc.Runner, now func() time.Time) *Generator {
	return &Generator{runner: runner, now: now}
}

// Collect runs the status and show queries, merges their fields (status
// first), and finalizes the derived fields in place.
func (g *Generator) Collect(ctx context.Context) (Record, error) {
	data := Record{}

	status, err := g.parseGitStatus(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range status {
		data[k] = v
	}

	show, err := g.parseGitShow(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range show {
		data[k] = v
	}

	if err := finalize(data, g.now); err != nil {
		return nil, err
	}
	return data, nil
}

// parseGitStatus reduces a porcelain status query to the dirty flag. Nested
// repositories are excluded; untracked files are reported normally.
func (g *Generator) parseGitStatus(ctx context.Context) (Record, error) {
	cmd := proc.Command{
		Name: "git",
		Args: []string{"status", "--porcelain", "--ignore-submodules", "-unormal"},
	}
	result, err := g.runner.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run git status")
	}
	if result.ExitCode != 0 {
		return nil, prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}

	return Record{
		KeyIsDirty: len(result.Stdout) > 0,
	}, nil
}

// parseGitShow queries HEAD with a format string that makes git emit valid
// JSON, and parses that output directly.
func (g *Generator) parseGitShow(ctx context.Context) (Record, error) {
	formatStr := `{` +
		`"` + KeyAbbreviatedCommitHash + `":"%h",` +
		`"` + KeyCommitterDateStrict + `":"%cI",` +
		`"` + KeyCommitHash + `":"%H"` +
		`}`
	cmd := proc.Command{
		Name: "git",
		Args: []string{"show", "--no-patch", "--format=format:" + formatStr},
	}
	result, err := g.runner.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run git show")
	}
	if result.ExitCode != 0 {
		return nil, prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}

	var fields Record
	if err := json.Unmarshal([]byte(result.Stdout), &fields); err != nil {
		return nil, errors.Wrap(err, "failed to parse git show output")
	}
	return fields, nil
}

// finalize derives cal_ver, artifact_ver, and the normalized timestamps.
// A dirty tree invalidates the commit timestamp as a build identifier, so
// the current wall clock is used instead. Without a committer date this is
// a no-op and only the status fields survive.
func finalize(data Record, now func() time.Time) error {
	dtStr, _ := data[KeyCommitterDateStrict].(string)
	isDirty, _ := data[KeyIsDirty].(bool)

	if dtStr == "" {
		return nil
	}

	var moment time.Time
	if isDirty {
		moment = now().UTC()
	} else {
		parsed, err := time.Parse(time.RFC3339, dtStr)
		if err != nil {
			return errors.Wrapf(err, "failed to parse committer date %q", dtStr)
		}
		moment = parsed.UTC()
	}

	calVer := moment.Format("20060102.150405") + ".0"
	data[KeyCalVer] = calVer
	data[KeyCommitterDateStrict] = moment.Format("20060102T15:04:05") + "Z"
	data[KeyCommitterDateTimestamp] = int64(math.Round(float64(moment.UnixNano()) / float64(time.Second)))

	abbrevHash, _ := data[KeyAbbreviatedCommitHash].(string)
	data[KeyArtifactVer] = calVer + "-sha" + abbrevHash
	return nil
}

// Write emits the record as a single JSON line, to stdout when the output
// is the stdout sentinel, otherwise creating or overwriting the named file.
func Write(record Record, output string, stdout io.Writer) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to encode record")
	}

	if output == StdoutSentinel {
		if _, err := stdout.Write(encoded); err != nil {
			return errors.Wrap(err, "failed to write record to stdout")
		}
		return nil
	}

	if err := os.WriteFile(output, encoded, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write record to %s", output)
	}
	return nil
}

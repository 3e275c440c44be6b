// Package imagepush loads a container image archive, pushes its tags, and
// prints a release summary assembled from the image's label metadata.
package imagepush

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

// labelRows maps label metadata keys to their display names, in render order.
var labelRows = []struct {
	Key  string
	Name string
}{
	{"name", "Image Name"},
	{"org.opencontainers.image.version", "Version"},
	{"org.opencontainers.image.revision", "Revision"},
	{"com.systeminit.image.architecture", "Architecture"},
	{"com.systeminit.image.commit_url", "Commit URL"},
	{"com.systeminit.image.image_url", "Docker Hub Image URL"},
}

// Pusher drives the docker invocations for one release.
type Pusher struct {
	runner proc.Runner
	stdout io.Writer
	header *color.Color
}

// New creates a new Pusher
func New(runner proc.Runner, stdout io.Writer) *Pusher {
	return &Pusher{
		runner: runner,
		stdout: stdout,
		header: color.New(color.Bold),
	}
}

// Push loads the image archive, pushes every tag from the tag metadata file
// in order, and reports the release metadata. The first docker failure
// aborts the remainder.
func (p *Pusher) Push(ctx context.Context, artifactFile, tagMetadataFile, labelMetadataFile string) error {
	if err := p.loadArchive(ctx, artifactFile); err != nil {
		return err
	}

	tags, err := loadTags(tagMetadataFile)
	if err != nil {
		return err
	}

	if err := p.uploadImage(ctx, tags); err != nil {
		return err
	}

	return p.reportMetadata(labelMetadataFile, tags)
}

func (p *Pusher) loadArchive(ctx context.Context, artifactFile string) error {
	cmd := proc.Command{
		Name:         "docker",
		Args:         []string{"image", "load", "--input", artifactFile},
		InheritStdio: true,
	}
	p.header.Fprintf(p.stdout, "--- Loading image archive with: %s\n", cmd)
	return p.runChecked(ctx, cmd)
}

func (p *Pusher) uploadImage(ctx context.Context, tags []string) error {
	p.header.Fprintln(p.stdout, "--- Uploading image via tags")
	for _, tag := range tags {
		fmt.Fprintf(p.stdout, "  - Pushing tag '%s'\n", tag)
		cmd := proc.Command{
			Name:         "docker",
			Args:         []string{"image", "push", tag},
			InheritStdio: true,
		}
		if err := p.runChecked(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pusher) reportMetadata(labelMetadataFile string, tags []string) error {
	metadata, err := loadLabelMetadata(labelMetadataFile)
	if err != nil {
		return err
	}

	p.header.Fprintln(p.stdout, "\n--- Image released")
	fmt.Fprintln(p.stdout)

	t := table.NewWriter()
	t.SetOutputMirror(p.stdout)
	t.SetStyle(table.StyleLight)
	for _, row := range labelRows {
		t.AppendRow(table.Row{row.Name, metadata[row.Key]})
	}
	for i, tag := range tags {
		name := ""
		if i == 0 {
			name = "Tags"
		}
		t.AppendRow(table.Row{name, tag})
	}
	t.Render()
	return nil
}

func (p *Pusher) runChecked(ctx context.Context, cmd proc.Command) error {
	result, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return errors.Wrapf(err, "failed to run %s", cmd.Name)
	}
	if result.ExitCode != 0 {
		return prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}
	return nil
}

// loadTags reads the tag list, a JSON array of fully qualified image tags.
func loadTags(tagMetadataFile string) ([]string, error) {
	raw, err := os.ReadFile(tagMetadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tag metadata")
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tag metadata %s", tagMetadataFile)
	}
	return tags, nil
}

func loadLabelMetadata(labelMetadataFile string) (map[string]string, error) {
	raw, err := os.ReadFile(labelMetadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read label metadata")
	}
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, errors.Wrapf(err, "failed to parse label metadata %s", labelMetadataFile)
	}
	return metadata, nil
}

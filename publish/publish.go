// Package publish uploads a build artifact and its metadata record to an
// S3 bucket for distribution, shelling out to the aws CLI.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

// MetadataSuffix is appended to the artifact URL for the metadata upload.
const MetadataSuffix = ".metadata.json"

// urlFields are the metadata fields, in order, that make up the object path
// under the destination bucket.
var urlFields = []string{"family", "os", "architecture", "variant", "name"}

// Publisher uploads artifacts via the aws CLI.
type Publisher struct {
	runner proc.Runner
	stdout io.Writer
}

// New creates a new Publisher
func New(runner proc.Runner, stdout io.Writer) *Publisher {
	return &Publisher{runner: runner, stdout: stdout}
}

// Publish crafts the destination URL from the metadata record, then uploads
// the artifact followed by the metadata file itself.
func (p *Publisher) Publish(ctx context.Context, artifactFile, metadataFile, destination string) error {
	metadata, err := loadMetadata(metadataFile)
	if err != nil {
		return err
	}

	url, err := CraftURL(destination, metadata)
	if err != nil {
		return err
	}

	if err := p.syncToS3(ctx, artifactFile, url); err != nil {
		return err
	}
	return p.syncToS3(ctx, metadataFile, url+MetadataSuffix)
}

// CraftURL joins the destination bucket with the identifying metadata
// fields. Joining with "/" avoids having to strip a trailing slash off the
// bucket, even though it reads a bit awkward.
func CraftURL(destination string, metadata map[string]any) (string, error) {
	parts := []string{destination}
	for _, field := range urlFields {
		value, ok := metadata[field].(string)
		if !ok || value == "" {
			return "", prelude.NewValidationError("metadata is missing field %q", field)
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, "/"), nil
}

func (p *Publisher) syncToS3(ctx context.Context, localFile, url string) error {
	cmd := proc.Command{
		Name:         "aws",
		Args:         []string{"s3", "cp", localFile, url},
		InheritStdio: true,
	}
	result, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "failed to run aws s3 cp")
	}
	if result.ExitCode != 0 {
		return prelude.NewCommandError(cmd.String(), result.ExitCode, result.Stdout, result.Stderr)
	}
	fmt.Fprintf(p.stdout, "Successfully synced %s to %s\n", localFile, url)
	return nil
}

func loadMetadata(metadataFile string) (map[string]any, error) {
	raw, err := os.ReadFile(metadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata")
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, errors.Wrapf(err, "failed to parse metadata %s", metadataFile)
	}
	return metadata, nil
}

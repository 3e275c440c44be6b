package imagepush

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prelude "github.com/systeminit/prelude"
	"github.com/systeminit/prelude/proc"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureFiles(t *testing.T) (artifact, tags, labels string) {
	dir := t.TempDir()
	artifact = writeJSON(t, dir, "image.tar", "not-a-real-archive")
	tags = writeJSON(t, dir, "tags.json", `["registry.io/app:20240115.103000.0-shaabc1234","registry.io/app:stable"]`)
	labels = writeJSON(t, dir, "labels.json", `{
		"name": "registry.io/app",
		"org.opencontainers.image.version": "20240115.103000.0-shaabc1234",
		"org.opencontainers.image.revision": "abc1234",
		"com.systeminit.image.architecture": "x86_64",
		"com.systeminit.image.commit_url": "https://example.com/commit/abc1234",
		"com.systeminit.image.image_url": "https://hub.docker.com/r/app"
	}`)
	return artifact, tags, labels
}

func TestPushCommandSequence(t *testing.T) {
	artifact, tags, labels := fixtureFiles(t)
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)
	var out bytes.Buffer

	require.NoError(t, New(fake, &out).Push(context.Background(), artifact, tags, labels))

	require.Equal(t, 3, fake.CallCount())
	assert.Equal(t, []string{"image", "load", "--input", artifact}, fake.Commands[0].Args)
	assert.Equal(t, []string{"image", "push", "registry.io/app:20240115.103000.0-shaabc1234"}, fake.Commands[1].Args)
	assert.Equal(t, []string{"image", "push", "registry.io/app:stable"}, fake.Commands[2].Args)
	for _, cmd := range fake.Commands {
		assert.Equal(t, "docker", cmd.Name)
		assert.True(t, cmd.InheritStdio)
	}
}

func TestPushAnnouncesProgress(t *testing.T) {
	artifact, tags, labels := fixtureFiles(t)
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)
	var out bytes.Buffer

	require.NoError(t, New(fake, &out).Push(context.Background(), artifact, tags, labels))

	text := out.String()
	assert.Contains(t, text, "--- Loading image archive with: docker image load --input "+artifact)
	assert.Contains(t, text, "--- Uploading image via tags")
	assert.Contains(t, text, "  - Pushing tag 'registry.io/app:stable'")
}

func TestPushRendersReleaseTable(t *testing.T) {
	artifact, tags, labels := fixtureFiles(t)
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)
	var out bytes.Buffer

	require.NoError(t, New(fake, &out).Push(context.Background(), artifact, tags, labels))

	text := out.String()
	assert.Contains(t, text, "--- Image released")
	assert.Contains(t, text, "Image Name")
	assert.Contains(t, text, "registry.io/app")
	assert.Contains(t, text, "Version")
	assert.Contains(t, text, "20240115.103000.0-shaabc1234")
	assert.Contains(t, text, "Architecture")
	assert.Contains(t, text, "x86_64")
	assert.Contains(t, text, "Tags")
}

func TestPushAbortsOnFirstFailure(t *testing.T) {
	artifact, tags, labels := fixtureFiles(t)
	fake := (&proc.FakeRunner{}).
		Stub(proc.Result{}, nil).
		Stub(proc.Result{ExitCode: 1, Stderr: "denied"}, nil)
	var out bytes.Buffer

	err := New(fake, &out).Push(context.Background(), artifact, tags, labels)
	require.Error(t, err)
	assert.True(t, prelude.IsCommandError(err))
	assert.Equal(t, 2, fake.CallCount(), "second tag must not be pushed after the first fails")
	assert.NotContains(t, out.String(), "--- Image released")
}

func TestPushFailsOnLoadError(t *testing.T) {
	artifact, tags, labels := fixtureFiles(t)
	fake := (&proc.FakeRunner{}).Stub(proc.Result{ExitCode: 1}, nil)

	err := New(fake, &bytes.Buffer{}).Push(context.Background(), artifact, tags, labels)
	require.Error(t, err)
	assert.Equal(t, 1, fake.CallCount())
}

func TestPushRejectsBadTagMetadata(t *testing.T) {
	artifact, _, labels := fixtureFiles(t)
	badTags := writeJSON(t, t.TempDir(), "tags.json", `{"not":"a list"}`)
	fake := (&proc.FakeRunner{}).Stub(proc.Result{}, nil)

	err := New(fake, &bytes.Buffer{}).Push(context.Background(), artifact, badTags, labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse tag metadata")
	assert.Equal(t, 1, fake.CallCount(), "only the load runs before tag metadata is read")
}

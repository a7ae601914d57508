// Package execbackend is a thin command-template implementation of the
// backend interfaces. It expands plan record fields into a shell command
// and runs it; everything interesting (toolchains, flashing, harnesses)
// lives in the invoked command.
package execbackend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/plan"
)

// Builder runs a build command template per build record. Recognized
// placeholders: {build_id}, {fingerprint}, {sketch}, {artifact}.
type Builder struct {
	// Command is the template passed to `sh -c` after expansion.
	Command string
	// TreeRoot is the working directory for the command.
	TreeRoot string
	// ArtifactDir is where artifact handles point; the command is expected
	// to place its output at the expanded {artifact} path.
	ArtifactDir string
}

// Build implements backend.Builder.
func (b *Builder) Build(ctx context.Context, rec *plan.BuildRecord) (string, error) {
	artifact := filepath.Join(b.ArtifactDir, rec.ID+".elf")
	command := expand(b.Command, map[string]string{
		"build_id":    rec.ID,
		"fingerprint": rec.Fingerprint,
		"sketch":      rec.Sketch,
		"artifact":    artifact,
	})
	if err := runCommand(ctx, command, b.TreeRoot); err != nil {
		return "", fmt.Errorf("build command for %s: %w", rec.ID, err)
	}
	return artifact, nil
}

// Tester runs a test command template per test record. Recognized
// placeholders: {test_id}, {test_name}, {driver}, {build_id}, {artifact}.
type Tester struct {
	Command  string
	TreeRoot string
}

// RunTest implements backend.Tester.
func (t *Tester) RunTest(ctx context.Context, rec *plan.TestRecord, artifact string) error {
	command := expand(t.Command, map[string]string{
		"test_id":   rec.ID,
		"test_name": rec.Name,
		"driver":    rec.Driver,
		"build_id":  rec.BuildID,
		"artifact":  artifact,
	})
	if err := runCommand(ctx, command, t.TreeRoot); err != nil {
		return fmt.Errorf("test command for %s: %w", rec.Name, err)
	}
	return nil
}

func expand(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func runCommand(ctx context.Context, command, dir string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running backend command.", "command", command, "dir", dir)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(output.String()))
	}
	return nil
}

// Package testutil provides shared helpers for integration tests: a
// fixture writer that materializes a spec tree in a temp directory, a
// harness that runs the resolution pass over it, and scripted fake
// backends.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/firmware-grid/fwplan/internal/app"
	"github.com/firmware-grid/fwplan/internal/plan"
)

// WriteTree materializes the given files under a fresh temp directory and
// returns its path. Keys are slash-separated paths relative to the tree
// root; parent directories are created as needed. An entry with a trailing
// slash creates an empty directory.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if len(name) > 0 && name[len(name)-1] == '/' {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// HarnessResult holds the outcomes of a resolution harness run.
type HarnessResult struct {
	Plan      *plan.Plan
	Err       error
	LogOutput string
	App       *app.App
	TreeRoot  string
}

// ResolveTree is the standard harness: write the fixture tree, configure
// an app over it, and run the pure resolution pass.
func ResolveTree(t *testing.T, files map[string]string) *HarnessResult {
	return ResolveTreeWithConfig(t, files, nil)
}

// ResolveTreeWithConfig is ResolveTree with a configuration hook applied
// before the app is constructed.
func ResolveTreeWithConfig(t *testing.T, files map[string]string, mutate func(*app.Config)) *HarnessResult {
	t.Helper()

	root := WriteTree(t, files)
	cfg, err := app.NewConfig(app.Config{
		TreeRoot:    root,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	})
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(logBuffer, logBuffer, cfg)

	p, runErr := testApp.ResolvePlan(context.Background())

	if os.Getenv("FWPLAN_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Plan:      p,
		Err:       runErr,
		LogOutput: logBuffer.String(),
		App:       testApp,
		TreeRoot:  root,
	}
}

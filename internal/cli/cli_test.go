package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"--tree", "/tmp/tree"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "/tmp/tree", cfg.TreeRoot)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Run)
	assert.False(t, cfg.AutoAddModule)
}

func TestParse_TreeRootSources(t *testing.T) {
	t.Parallel()

	t.Run("shorthand flag", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-d", "/tmp/short"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/short", cfg.TreeRoot)
	})

	t.Run("positional argument", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"/tmp/positional"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/positional", cfg.TreeRoot)
	})

	t.Run("long flag wins over positional", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"--tree", "/tmp/flagged", "/tmp/positional"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/flagged", cfg.TreeRoot)
	})
}

func TestParse_NoTreeShowsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_HelpFlag(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"--help"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}

func TestParse_UnknownFlag(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := Parse([]string{"--no-such-flag"}, &out)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "bad log format",
			args: []string{"--tree", "/t", "--log-format", "xml"},
			want: "invalid log-format",
		},
		{
			name: "bad log level",
			args: []string{"--tree", "/t", "--log-level", "verbose"},
			want: "invalid log-level",
		},
		{
			name: "run without backend commands",
			args: []string{"--tree", "/t", "--run"},
			want: "--run requires",
		},
		{
			name: "auto-add without module url",
			args: []string{"--tree", "/t", "--auto-add-module"},
			want: "module URL",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestParse_RunConfiguration(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := Parse([]string{
		"--tree", "/tmp/tree",
		"--run",
		"--build-command", "make {build_id}",
		"--test-command", "pytest {driver}",
		"--artifact-dir", "/tmp/artifacts",
		"--workers", "8",
		"--module-url", "https://example.com/fw.git",
		"--module-branch", "release",
		"--auto-add-module",
		"--cmake-out", "plan.cmake",
		"--json-out", "plan.json",
		"--log-format", "JSON",
		"--log-level", "DEBUG",
	}, &out)
	require.NoError(t, err)

	assert.True(t, cfg.Run)
	assert.Equal(t, "make {build_id}", cfg.BuildCommand)
	assert.Equal(t, "pytest {driver}", cfg.TestCommand)
	assert.Equal(t, "/tmp/artifacts", cfg.ArtifactDir)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.True(t, cfg.AutoAddModule)
	assert.Equal(t, "plan.cmake", cfg.CMakeOut)
	assert.Equal(t, "plan.json", cfg.JSONOut)
	assert.Equal(t, "json", cfg.LogFormat, "format is case-insensitive")
	assert.Equal(t, "debug", cfg.LogLevel, "level is case-insensitive")
}

func TestParse_CMakeShorthand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, _, err := Parse([]string{"--tree", "/t", "-c", "short.cmake"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "short.cmake", cfg.CMakeOut)
}

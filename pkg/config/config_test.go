package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Source", cfg.Source.Root)
	assert.Equal(t, []string{".for"}, cfg.Source.Extensions)
	assert.True(t, cfg.Source.Gitignore)
	assert.Equal(t, "token", cfg.Analysis.Strategy)
	assert.Equal(t, []string{"DBG"}, cfg.Analysis.DebugRoutines)
	assert.Equal(t, []string{"UNITS", "UNITS3", "UNITS4", "LIBCOMMON"}, cfg.Report.IgnoredBlocks)
	assert.Equal(t, 4, cfg.Report.Indent)
	assert.Equal(t, 7, cfg.Report.WrapIndent)
	assert.Equal(t, 60, cfg.Report.SectionWidth)
	assert.Equal(t, 90, cfg.Report.TotalWidth)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigDoesNotShareIgnoredBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.IgnoredBlocks[0] = "CHANGED"
	assert.Equal(t, "UNITS", DefaultIgnoredBlocks[0])
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "calltree.toml",
			content: `
[source]
root = "/src/vdyp"

[analysis]
strategy = "pattern"

[report]
ignored_blocks = ["UNITS"]
total_width = 120
`,
		},
		{
			name: "yaml",
			file: "calltree.yaml",
			content: `
source:
  root: /src/vdyp
analysis:
  strategy: pattern
report:
  ignored_blocks: [UNITS]
  total_width: 120
`,
		},
		{
			name:    "json",
			file:    "calltree.json",
			content: `{"source": {"root": "/src/vdyp"}, "analysis": {"strategy": "pattern"}, "report": {"ignored_blocks": ["UNITS"], "total_width": 120}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.file, tt.content)

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "/src/vdyp", cfg.Source.Root)
			assert.Equal(t, "pattern", cfg.Analysis.Strategy)
			assert.Equal(t, []string{"UNITS"}, cfg.Report.IgnoredBlocks)
			assert.Equal(t, 120, cfg.Report.TotalWidth)
			// Unset keys keep their defaults.
			assert.Equal(t, 60, cfg.Report.SectionWidth)
			assert.Equal(t, []string{".for"}, cfg.Source.Extensions)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfigSearch(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, filepath.Join(".calltree", "calltree.toml"), "[output]\nformat = \"json\"\n")

	result, err := LoadConfig(WithBaseDir(dir), WithEnv(noEnv))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".calltree", "calltree.toml"), result.Source)
	assert.Equal(t, "json", result.Config.Output.Format)
}

func TestLoadConfigDefaults(t *testing.T) {
	result, err := LoadConfig(WithBaseDir(t.TempDir()), WithEnv(noEnv))
	require.NoError(t, err)
	assert.Empty(t, result.Source)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "calltree.toml", "[source]\nroot = \"from-file\"\n")

	env := func(key string) string {
		if key == SourceDirEnv {
			return "from-env"
		}
		return ""
	}

	result, err := LoadConfig(WithPath(path), WithEnv(env))
	require.NoError(t, err)
	assert.Equal(t, "from-env", result.Config.Source.Root)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "calltree.toml", "[analysis]\nstrategy = \"guess\"\n")

	_, err := LoadConfig(WithPath(path), WithEnv(noEnv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.strategy")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty extensions", func(c *Config) { c.Source.Extensions = nil }, "source.extensions must not be empty"},
		{"extension without dot", func(c *Config) { c.Source.Extensions = []string{"for"} }, "must start with a dot"},
		{"negative size", func(c *Config) { c.Source.MaxFileSize = -1 }, "max_file_size"},
		{"unknown strategy", func(c *Config) { c.Analysis.Strategy = "ast" }, "analysis.strategy"},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -2 }, "analysis.workers"},
		{"negative width", func(c *Config) { c.Report.TotalWidth = -1 }, "report.total_width"},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"toon format", func(c *Config) { c.Output.Format = "toon" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIgnoredBlockSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.IgnoredBlocks = []string{"units", "LibCommon"}

	set := cfg.IgnoredBlockSet()
	assert.Contains(t, set, "UNITS")
	assert.Contains(t, set, "LIBCOMMON")
	assert.Len(t, set, 2)
}

func TestDebugRoutinePrefixes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.DebugRoutines = []string{"dbg", "Trace"}

	assert.Equal(t, []string{"DBG", "TRACE"}, cfg.DebugRoutinePrefixes())
	assert.Equal(t, []string{"dbg", "Trace"}, cfg.Analysis.DebugRoutines)
}

func TestHasSourceExtension(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.HasSourceExtension("Source/vdyp7.for"))
	assert.True(t, cfg.HasSourceExtension("Source/VDYP7.FOR"))
	assert.False(t, cfg.HasSourceExtension("Source/vdyp7.f90"))
	assert.False(t, cfg.HasSourceExtension("Makefile"))
}

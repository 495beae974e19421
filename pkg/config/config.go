// Package config loads calltree configuration from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SourceDirEnv names the environment variable holding the corpus root.
const SourceDirEnv = "VDYP_SOURCE_DIR"

// DefaultSourceRoot is used when neither the config file nor the environment
// names a corpus root.
const DefaultSourceRoot = "Source"

// Config holds all configuration options for calltree.
type Config struct {
	// Corpus location and file selection
	Source SourceConfig `koanf:"source" toml:"source"`

	// Usage classification settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Call-tree rendering settings
	Report ReportConfig `koanf:"report" toml:"report"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// SourceConfig selects the files that form the corpus.
type SourceConfig struct {
	Root        string   `koanf:"root" toml:"root"`
	Extensions  []string `koanf:"extensions" toml:"extensions"`
	Exclude     []string `koanf:"exclude" toml:"exclude"` // gitignore syntax
	Gitignore   bool     `koanf:"gitignore" toml:"gitignore"`
	MaxFileSize int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = unlimited
}

// AnalysisConfig controls usage classification.
type AnalysisConfig struct {
	Strategy      string   `koanf:"strategy" toml:"strategy"` // token, pattern
	DebugRoutines []string `koanf:"debug_routines" toml:"debug_routines"`
	Workers       int      `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
}

// ReportConfig controls call-tree rendering.
type ReportConfig struct {
	IgnoredBlocks []string `koanf:"ignored_blocks" toml:"ignored_blocks"`
	Indent        int      `koanf:"indent" toml:"indent"`
	WrapIndent    int      `koanf:"wrap_indent" toml:"wrap_indent"`
	SectionWidth  int      `koanf:"section_width" toml:"section_width"`
	TotalWidth    int      `koanf:"total_width" toml:"total_width"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultIgnoredBlocks are infrastructure blocks left out of every usage summary.
var DefaultIgnoredBlocks = []string{"UNITS", "UNITS3", "UNITS4", "LIBCOMMON"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Root:       DefaultSourceRoot,
			Extensions: []string{".for"},
			Gitignore:  true,
		},
		Analysis: AnalysisConfig{
			Strategy:      "token",
			DebugRoutines: []string{"DBG"},
		},
		Report: ReportConfig{
			IgnoredBlocks: append([]string(nil), DefaultIgnoredBlocks...),
			Indent:        4,
			WrapIndent:    7,
			SectionWidth:  60,
			TotalWidth:    90,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Standard config file names to search for
var configNames = []string{
	"calltree.toml",
	"calltree.yaml",
	"calltree.yml",
	"calltree.json",
	".calltree.toml",
	".calltree.yaml",
	".calltree.yml",
	".calltree.json",
}

// Search in current directory and .calltree directory
var searchDirs = []string{".", ".calltree"}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path    string
	baseDir string
	getenv  func(string) string
}

// WithPath loads the given file instead of searching the standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithBaseDir searches the standard locations relative to dir.
func WithBaseDir(dir string) LoadOption {
	return func(o *loadOptions) { o.baseDir = dir }
}

// WithEnv replaces os.Getenv for environment overrides.
func WithEnv(getenv func(string) string) LoadOption {
	return func(o *loadOptions) { o.getenv = getenv }
}

// LoadResult is the effective configuration and the file it came from.
// Source is empty when no file was found.
type LoadResult struct {
	Config *Config
	Source string
}

// LoadConfig resolves the effective configuration: defaults, then the config
// file, then VDYP_SOURCE_DIR. The result is validated.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{baseDir: ".", getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}

	result := &LoadResult{Config: DefaultConfig()}

	path := o.path
	if path == "" {
		path = find(o.baseDir)
	}
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.Source = path
	}

	if root := o.getenv(SourceDirEnv); root != "" {
		result.Config.Source.Root = root
	}

	if err := result.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", displaySource(result.Source), err)
	}
	return result, nil
}

func displaySource(source string) string {
	if source == "" {
		return "(defaults)"
	}
	return source
}

func find(baseDir string) string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(baseDir, dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Source.Extensions) == 0 {
		errs = append(errs, errors.New("source.extensions must not be empty"))
	}
	for _, ext := range c.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("source.extensions: %q must start with a dot", ext))
		}
	}
	if c.Source.MaxFileSize < 0 {
		errs = append(errs, errors.New("source.max_file_size must not be negative"))
	}

	switch strings.ToLower(c.Analysis.Strategy) {
	case "", "token", "pattern":
	default:
		errs = append(errs, fmt.Errorf("analysis.strategy: unknown value %q (want token or pattern)", c.Analysis.Strategy))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, errors.New("analysis.workers must not be negative"))
	}

	for _, w := range []struct {
		name  string
		value int
	}{
		{"report.indent", c.Report.Indent},
		{"report.wrap_indent", c.Report.WrapIndent},
		{"report.section_width", c.Report.SectionWidth},
		{"report.total_width", c.Report.TotalWidth},
	} {
		if w.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", w.name))
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case "", "text", "json", "markdown", "md", "toon":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown value %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

// IgnoredBlockSet returns the ignored block names, upper-cased.
func (c *Config) IgnoredBlockSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Report.IgnoredBlocks))
	for _, b := range c.Report.IgnoredBlocks {
		set[strings.ToUpper(b)] = struct{}{}
	}
	return set
}

// DebugRoutinePrefixes returns the debug routine name prefixes, upper-cased
// to match case-folded source lines.
func (c *Config) DebugRoutinePrefixes() []string {
	prefixes := make([]string, len(c.Analysis.DebugRoutines))
	for i, p := range c.Analysis.DebugRoutines {
		prefixes[i] = strings.ToUpper(p)
	}
	return prefixes
}

// HasSourceExtension reports whether path carries one of the configured
// extensions. The comparison ignores case.
func (c *Config) HasSourceExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range c.Source.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Package calltree builds the subroutine registry of a FORTRAN corpus, walks
// its call graph from a root subroutine and renders the annotated call tree.
package calltree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vividroyjeong/calltree/internal/fileproc"
	"github.com/vividroyjeong/calltree/pkg/analyzer/commons"
	"github.com/vividroyjeong/calltree/pkg/fortran"
	"github.com/vividroyjeong/calltree/pkg/models"
	"github.com/vividroyjeong/calltree/pkg/source"
)

// ErrEmptyCorpus is returned when there is no source file to scan.
var ErrEmptyCorpus = errors.New("no source files found")

// Subroutine is one registry entry. Callees and Visited are filled in by
// BuildCallTree.
type Subroutine struct {
	Name    string          `json:"name"`
	File    *source.File    `json:"file"`
	Line    int             `json:"line"` // zero-based index of the SUBROUTINE line
	Usage   models.UsageSet `json:"usage"`
	Callees []string        `json:"callees"`
	Visited bool            `json:"-"`
}

// Registry maps subroutine names to their entries. It is owned by a single
// goroutine; nothing in it is synchronized.
type Registry struct {
	entries map[string]*Subroutine
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Subroutine)}
}

// Add inserts s. A name added twice keeps the later entry at the position of
// the first.
func (r *Registry) Add(s *Subroutine) {
	if _, exists := r.entries[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.entries[s.Name] = s
}

// Lookup finds a subroutine by name, ignoring case.
func (r *Registry) Lookup(name string) (*Subroutine, bool) {
	s, ok := r.entries[strings.ToUpper(name)]
	return s, ok
}

// Names returns every subroutine name in first-declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of subroutines.
func (r *Registry) Len() int {
	return len(r.order)
}

// FileResult is what scanning one file contributes to the registry.
type FileResult struct {
	File        *source.File
	Tables      *models.Tables
	Subroutines []*Subroutine
	Diagnostics []commons.Diagnostic
}

// ScanFile extracts the common-block tables of f and classifies every
// subroutine it declares. When a file declares the same name twice, the first
// declaration is kept, matching the scope Classify resolves.
func ScanFile(f *source.File, opts commons.Options) FileResult {
	ext := commons.Extract(f)
	result := FileResult{
		File:        f,
		Tables:      ext.Tables,
		Diagnostics: ext.Diagnostics,
	}

	seen := make(map[string]bool)
	for _, decl := range fortran.Declarations(f.Lines) {
		if seen[decl.Name] {
			continue
		}
		seen[decl.Name] = true
		result.Subroutines = append(result.Subroutines, &Subroutine{
			Name:  decl.Name,
			File:  f,
			Line:  decl.Line,
			Usage: commons.Classify(f, ext.Tables, decl.Name, opts),
		})
	}
	return result
}

// BuildRegistry scans files in order. A subroutine declared in several files
// resolves to the declaration in the last of them.
func BuildRegistry(files []*source.File, opts commons.Options) *Registry {
	reg := NewRegistry()
	for _, f := range files {
		for _, s := range ScanFile(f, opts).Subroutines {
			reg.Add(s)
		}
	}
	return reg
}

// Analyzer scans a corpus into a Registry.
type Analyzer struct {
	src        source.ContentSource
	classify   commons.Options
	workers    int
	onProgress fileproc.ProgressFunc
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithContentSource sets where file content is read from.
func WithContentSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.src = src
	}
}

// WithStrategy sets the usage classification strategy.
func WithStrategy(s commons.Strategy) Option {
	return func(a *Analyzer) {
		a.classify.Strategy = s
	}
}

// WithDebugRoutines sets the name prefixes of debug routines whose call lines
// are left out of classification.
func WithDebugRoutines(prefixes []string) Option {
	return func(a *Analyzer) {
		a.classify.DebugRoutines = prefixes
	}
}

// WithWorkers sets the number of files scanned concurrently (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithProgress sets a callback invoked once per scanned file.
func WithProgress(fn func()) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a new corpus analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		src:      source.NewFilesystem(),
		classify: commons.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ScanResult is a scanned corpus.
type ScanResult struct {
	Registry    *Registry
	Files       []FileResult
	Diagnostics []commons.Diagnostic
	// Failures lists the files that could not be read, ordered by path.
	Failures []fileproc.ProcessingError
}

// Analyze reads and scans paths concurrently, then merges the per-file results
// into a registry in path order. A file that cannot be read is reported in
// Failures and contributes nothing.
func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyCorpus
	}

	results, errs := fileproc.ForEachFileWithContextAndProgress(ctx, paths, a.workers, func(path string) (FileResult, error) {
		f, err := source.Load(a.src, path)
		if err != nil {
			return FileResult{}, err
		}
		return ScanFile(f, a.classify), nil
	}, a.onProgress)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}

	scan := &ScanResult{
		Registry: NewRegistry(),
		Files:    results,
		Failures: errs.Sorted(),
	}
	for _, fr := range results {
		for _, s := range fr.Subroutines {
			scan.Registry.Add(s)
		}
		scan.Diagnostics = append(scan.Diagnostics, fr.Diagnostics...)
	}
	return scan, nil
}


package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/internal/output"
	"github.com/vividroyjeong/calltree/internal/progress"
	"github.com/vividroyjeong/calltree/internal/scanner"
	"github.com/vividroyjeong/calltree/pkg/analyzer/calltree"
	"github.com/vividroyjeong/calltree/pkg/analyzer/commons"
	"github.com/vividroyjeong/calltree/pkg/config"
	"github.com/vividroyjeong/calltree/pkg/models"
	"github.com/vividroyjeong/calltree/pkg/source"
)

// session carries the effective configuration of one command run.
type session struct {
	c       *cli.Context
	cfg     *config.Config
	msg     *output.Messenger
	colored bool
}

// newSession loads the configuration and applies global flag overrides.
// Flags win over the environment, which wins over the config file.
func newSession(c *cli.Context) (*session, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	if root := c.String("source"); root != "" {
		cfg.Source.Root = root
	}
	if format := c.String("format"); format != "" {
		cfg.Output.Format = format
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	colored := colorEnabled(c, cfg)
	s := &session{
		c:       c,
		cfg:     cfg,
		msg:     output.NewMessenger(c.App.ErrWriter, colored, c.Bool("verbose")),
		colored: colored,
	}
	if result.Source != "" {
		s.msg.Info("Using configuration from %s", result.Source)
	}
	return s, nil
}

func (s *session) stdout() io.Writer {
	return s.c.App.Writer
}

func (s *session) classifyOptions() commons.Options {
	strategy, _ := commons.ParseStrategy(s.cfg.Analysis.Strategy)
	return commons.Options{Strategy: strategy, DebugRoutines: s.cfg.DebugRoutinePrefixes()}
}

func (s *session) ignoredBlocks() models.StringSet {
	set := models.NewStringSet()
	for b := range s.cfg.IgnoredBlockSet() {
		set.Add(b)
	}
	return set
}

func (s *session) layout() calltree.Layout {
	return calltree.Layout{
		Indent:       s.cfg.Report.Indent,
		WrapIndent:   s.cfg.Report.WrapIndent,
		SectionWidth: s.cfg.Report.SectionWidth,
		TotalWidth:   s.cfg.Report.TotalWidth,
	}
}

// listSourceFiles enumerates the corpus and drops files over the size limit.
// Entries that cannot be read are reported as warnings and left out.
func (s *session) listSourceFiles() ([]string, error) {
	root := s.cfg.Source.Root
	sc := scanner.NewScanner(s.cfg)
	files, err := sc.ScanDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing source files: %w", err)
	}
	for _, e := range sc.Skipped() {
		s.msg.Warning("Could not read %s: %v", e.Path, e.Err)
	}

	files, oversized, failed := scanner.FilterBySize(files, s.cfg.Source.MaxFileSize)
	for _, e := range failed {
		s.msg.Warning("Could not stat %s: %v", e.Path, e.Err)
	}
	if oversized > 0 {
		s.msg.Warning("Skipped %d files larger than %d bytes", oversized, s.cfg.Source.MaxFileSize)
	}
	return files, nil
}

// scanCorpus builds the subroutine registry of the whole corpus. Unreadable
// files are reported as warnings and left out.
func (s *session) scanCorpus() (*calltree.ScanResult, error) {
	files, err := s.listSourceFiles()
	if err != nil {
		return nil, err
	}

	tracker := progress.NewQuiet()
	if s.c.Bool("progress") && len(files) > 0 {
		tracker = progress.NewTracker(s.c.App.ErrWriter, "Scanning corpus...", len(files))
	}

	strategy, _ := commons.ParseStrategy(s.cfg.Analysis.Strategy)
	a := calltree.New(
		calltree.WithStrategy(strategy),
		calltree.WithDebugRoutines(s.cfg.DebugRoutinePrefixes()),
		calltree.WithWorkers(s.cfg.Analysis.Workers),
		calltree.WithProgress(tracker.Tick),
	)

	scan, err := a.Analyze(s.c.Context, files)
	if err != nil {
		tracker.FinishError(err)
		if errors.Is(err, calltree.ErrEmptyCorpus) {
			return nil, fmt.Errorf("%w in %s", err, s.cfg.Source.Root)
		}
		return nil, err
	}
	tracker.FinishSuccess()

	for _, f := range scan.Failures {
		s.msg.Warning("Could not read %s: %v", f.Path, f.Err)
	}
	for _, d := range scan.Diagnostics {
		s.msg.Detail("%s", d)
	}
	s.msg.Info("Scanned %d files, %d subroutines", len(scan.Files), scan.Registry.Len())
	return scan, nil
}

// loadFile finds one corpus file by name, with or without its extension.
func (s *session) loadFile(name string) (*source.File, error) {
	files, err := s.listSourceFiles()
	if err != nil {
		return nil, err
	}
	path, ok := scanner.NewScanner(s.cfg).FindFile(files, name)
	if !ok {
		return nil, fmt.Errorf("file %q not found in %s", name, s.cfg.Source.Root)
	}
	return source.Load(source.NewFilesystem(), path)
}

// write renders data in the configured format to stdout or --output.
func (s *session) write(data any) error {
	formatter, err := output.NewFormatter(output.ParseFormat(s.cfg.Output.Format), s.c.String("output"), s.stdout(), s.colored)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(data)
}

// reportNotFound prints the not-found message for err and reports whether
// err was a missing root. A missing root is not a failure.
func (s *session) reportNotFound(err error) bool {
	var nf *calltree.NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	fmt.Fprintf(s.stdout(), "Subroutine %q not found in the source code\n", strings.ToUpper(nf.Name))
	return true
}

// Package scanner enumerates the source files of a corpus.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/vividroyjeong/calltree/internal/fileproc"
	"github.com/vividroyjeong/calltree/pkg/config"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config

	exclude   gitignore.Matcher // relative to the scan root
	gitignore gitignore.Matcher // relative to gitRoot
	gitRoot   string

	skipped []fileproc.ProcessingError
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns prepares the configured exclusions and, when enabled,
// every .gitignore of the enclosing repository.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	s.exclude, s.gitignore, s.gitRoot = nil, nil, ""

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Source.Exclude {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.exclude = gitignore.NewMatcher(patterns)
	}

	if !s.config.Source.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil {
		s.skip(gitRoot, fmt.Errorf("reading .gitignore: %w", err))
		return
	}
	if len(gitPatterns) == 0 {
		return
	}
	s.gitignore = gitignore.NewMatcher(gitPatterns)
	s.gitRoot = gitRoot
}

// isExcluded checks if an absolute path matches any exclusion pattern.
func (s *Scanner) isExcluded(absRoot, path string, isDir bool) bool {
	if s.exclude != nil {
		if rel, err := filepath.Rel(absRoot, path); err == nil && rel != "." {
			if s.exclude.Match(splitPath(rel), isDir) {
				return true
			}
		}
	}
	if s.gitignore != nil {
		if rel, err := filepath.Rel(s.gitRoot, path); err == nil && rel != "." {
			if s.gitignore.Match(splitPath(rel), isDir) {
				return true
			}
		}
	}
	return false
}

func splitPath(rel string) []string {
	return strings.Split(rel, string(filepath.Separator))
}

func (s *Scanner) skip(path string, err error) {
	s.skipped = append(s.skipped, fileproc.ProcessingError{Path: path, Err: err})
}

// Skipped returns the paths the last ScanDir could not read, with the reason.
// Files below an unreadable directory are missing from its result.
func (s *Scanner) Skipped() []fileproc.ProcessingError {
	return s.skipped
}

// ScanDir recursively scans root for files with a configured source extension.
// The result is sorted so corpus order is stable across runs. Symlinks that
// resolve outside root are skipped. Entries that cannot be read are left out
// and reported by Skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	s.skipped = nil
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	s.loadExcludePatterns(absRoot)

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		include, err := s.visit(absRoot, path, d, err)
		if include {
			files = append(files, path)
		}
		return err
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, walkErr)
	}

	sort.Strings(files)
	return files, nil
}

// visit decides whether one walked entry is a corpus file. walkErr is the
// error WalkDir reports for the entry.
func (s *Scanner) visit(absRoot, path string, d fs.DirEntry, walkErr error) (bool, error) {
	if walkErr != nil {
		s.skip(path, walkErr)
		if d != nil && d.IsDir() {
			return false, filepath.SkipDir
		}
		return false, nil
	}

	// Security: validate path stays within root (prevent symlink traversal)
	if d.Type()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			if s.config.HasSourceExtension(path) {
				s.skip(path, err)
			}
			return false, nil
		}
		if !isWithinRoot(resolved, absRoot) {
			return false, nil
		}
	}

	if d.IsDir() {
		if path != absRoot && s.isExcluded(absRoot, path, true) {
			return false, filepath.SkipDir
		}
		return false, nil
	}

	if s.isExcluded(absRoot, path, false) {
		return false, nil
	}
	return s.config.HasSourceExtension(path), nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FindFile looks up a corpus file by base name, ignoring case. A name without
// an extension matches any configured source extension.
func (s *Scanner) FindFile(files []string, name string) (string, bool) {
	want := strings.ToLower(filepath.Base(name))
	hasExt := s.config.HasSourceExtension(want)
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		if base == want {
			return f, true
		}
		if !hasExt && strings.TrimSuffix(base, filepath.Ext(base)) == want {
			return f, true
		}
	}
	return "", false
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list, the count of files over the limit and the files
// that could not be stat'ed. If maxSize is 0, returns the original list
// unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int, []fileproc.ProcessingError) {
	if maxSize <= 0 {
		return files, 0, nil
	}

	filtered := make([]string, 0, len(files))
	oversized := 0
	var failed []fileproc.ProcessingError

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			failed = append(failed, fileproc.ProcessingError{Path: f, Err: err})
			continue
		}
		if info.Size() > maxSize {
			oversized++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, oversized, failed
}

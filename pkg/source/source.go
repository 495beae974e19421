// Package source provides the corpus primitives the analyzers read from:
// where file content comes from and the case-folded line view of a file.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vividroyjeong/calltree/pkg/fortran"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MapSource serves file content from memory, keyed by path.
// It is safe for concurrent reads.
type MapSource map[string]string

// Read implements ContentSource.
func (m MapSource) Read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return []byte(content), nil
}

// Paths returns the map's keys in sorted order.
func (m MapSource) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File is one source file of the corpus. Lines are case-folded on load so
// every downstream comparison is case-insensitive.
type File struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	Lines []string `json:"-"`
}

// MaxLineLength is the longest line NewFile accepts.
const MaxLineLength = 1024 * 1024

// NewFile builds a File from raw text. A line longer than MaxLineLength
// fails the whole file rather than truncating it.
func NewFile(path string, content []byte) (*File, error) {
	f := &File{
		Name: filepath.Base(path),
		Path: path,
	}
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	for sc.Scan() {
		f.Lines = append(f.Lines, fortran.Normalize(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s line %d: %w", path, len(f.Lines)+1, err)
	}
	return f, nil
}

// Load reads path from src and returns its File.
func Load(src ContentSource, path string) (*File, error) {
	content, err := src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := NewFile(path, content)
	if err != nil {
		return nil, fmt.Errorf("reading %w", err)
	}
	return f, nil
}

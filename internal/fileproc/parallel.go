// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Sorted returns the collected errors ordered by path.
func (e *ProcessingErrors) Sorted() []ProcessingError {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sorted := make([]ProcessingError, len(e.Errors))
	copy(sorted, e.Errors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return sorted
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// Corpus scanning is mostly I/O bound.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Workers returns n, or 2x NumCPU when n <= 0.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ForEachFileWithContextAndProgress processes files in parallel with a worker
// limit and progress callback. If maxWorkers is <= 0, defaults to 2x NumCPU.
// Results keep the order of files; failed files are left out and reported in
// the returned errors.
func ForEachFileWithContextAndProgress[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers)).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer func() {
				if onProgress != nil {
					onProgress()
				}
			}()

			// Check for cancellation before processing
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return nil // Don't stop pool on individual file errors
			}

			// Each goroutine owns its own slot.
			slots[i] = slot{value: result, ok: true}
			return nil
		})
	}
	_ = p.Wait() // Context errors are already captured in errs

	results := make([]T, 0, len(files))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

package calltree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vividroyjeong/calltree/pkg/fortran"
)

// ErrRootNotFound matches every NotFoundError.
var ErrRootNotFound = errors.New("subroutine not found")

// NotFoundError reports a root subroutine absent from the registry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("subroutine %q not found in the source code", e.Name)
}

// Is lets errors.Is match ErrRootNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrRootNotFound
}

// BuildCallTree records the callees of every subroutine reachable from root.
//
// The walk uses an explicit stack. A subroutine is queued at most once and
// each body is scanned at most once (Visited), so the work is bounded by the
// registry size even when the source contains mutual recursion. Callees keep
// first-occurrence order: top to bottom, left to right, without duplicates.
// Names that are not in the registry are not callees.
func BuildCallTree(reg *Registry, root string) error {
	_, err := buildCallTree(reg, root)
	return err
}

// buildCallTree is BuildCallTree returning how many subroutines were queued.
func buildCallTree(reg *Registry, root string) (int, error) {
	root = strings.ToUpper(root)
	if _, ok := reg.Lookup(root); !ok {
		return 0, &NotFoundError{Name: root}
	}

	stack := []string{root}
	queued := map[string]bool{root: true}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s := reg.entries[name]
		if s.Visited {
			continue
		}
		s.Visited = true

		lines := s.File.Lines
		end := fortran.End(lines, s.Line)
		for _, line := range lines[s.Line+1 : end] {
			if fortran.IsComment(line) {
				continue
			}
			for _, callee := range fortran.CallSites(line) {
				target, known := reg.entries[callee]
				if !known || slices.Contains(s.Callees, callee) {
					continue
				}
				s.Callees = append(s.Callees, callee)
				if !target.Visited && !queued[callee] {
					queued[callee] = true
					stack = append(stack, callee)
				}
			}
		}
	}
	return len(queued), nil
}

// BuildAll records the callees of every subroutine in the registry.
func BuildAll(reg *Registry) {
	for _, name := range reg.order {
		// Every name is in the registry, so this cannot fail.
		_ = BuildCallTree(reg, name)
	}
}

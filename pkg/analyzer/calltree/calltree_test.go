package calltree

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vividroyjeong/calltree/pkg/analyzer/commons"
	"github.com/vividroyjeong/calltree/pkg/source"
)

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

// exampleCorpus is one file where A declares BLK, calls B and assigns X from Y.
var exampleCorpus = map[string]string{
	"f.for": lines(
		"      SUBROUTINE A(N)",
		"      COMMON /BLK/ X, Y",
		"      CALL B",
		"      X = Y + 1",
		"      END SUBROUTINE A",
		"      SUBROUTINE B(M)",
		"      END SUBROUTINE B",
	),
}

// exclusionCorpus has ROOT calling U, which only touches an ignored block,
// and W, whose callee L assigns BLK.
var exclusionCorpus = map[string]string{
	"x.for": lines(
		"      SUBROUTINE ROOT",
		"      CALL U",
		"      CALL W",
		"      END",
		"      SUBROUTINE U",
		"      COMMON /UNITS/ IU",
		"      IU = 6",
		"      END",
		"      SUBROUTINE W",
		"      CALL L",
		"      END",
		"      SUBROUTINE L",
		"      COMMON /BLK/ X",
		"      X = 1",
		"      END",
	),
}

var recursiveCorpus = map[string]string{
	"r.for": lines(
		"      SUBROUTINE A",
		"      CALL B",
		"      END",
		"      SUBROUTINE B",
		"      CALL A",
		"      END",
	),
}

func loadFiles(t *testing.T, corpus map[string]string) []*source.File {
	t.Helper()
	paths := make([]string, 0, len(corpus))
	for p := range corpus {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]*source.File, len(paths))
	for i, p := range paths {
		f, err := source.NewFile(p, []byte(corpus[p]))
		require.NoError(t, err)
		files[i] = f
	}
	return files
}

func registryFrom(t *testing.T, corpus map[string]string) *Registry {
	t.Helper()
	reg := BuildRegistry(loadFiles(t, corpus), commons.DefaultOptions())
	require.NotZero(t, reg.Len())
	return reg
}

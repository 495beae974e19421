package calltree

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividroyjeong/calltree/pkg/analyzer/commons"
	"github.com/vividroyjeong/calltree/pkg/source"
)

func TestBuildRegistry(t *testing.T) {
	reg := registryFrom(t, exampleCorpus)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"A", "B"}, reg.Names())

	a, ok := reg.Lookup("a")
	require.True(t, ok, "lookup ignores case")
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "f.for", a.File.Path)
	assert.Equal(t, 0, a.Line)
	assert.False(t, a.Visited)
	assert.Empty(t, a.Callees)
	assert.Equal(t, []string{"BLK"}, a.Usage.BlocksAssigned.Sorted())
	assert.Equal(t, []string{"BLK.X"}, a.Usage.MembersAssigned.Sorted())
	assert.Equal(t, []string{"BLK"}, a.Usage.BlocksRead.Sorted())
	assert.Equal(t, []string{"BLK.Y"}, a.Usage.MembersRead.Sorted())

	b, ok := reg.Lookup("B")
	require.True(t, ok)
	assert.True(t, b.Usage.IsEmpty())

	_, ok = reg.Lookup("C")
	assert.False(t, ok)
}

func TestBuildRegistryLaterFileWins(t *testing.T) {
	reg := registryFrom(t, map[string]string{
		"a.for": lines("      SUBROUTINE DUP", "      END", "      SUBROUTINE ONLYA", "      END"),
		"b.for": lines("      SUBROUTINE DUP", "      END"),
	})

	dup, ok := reg.Lookup("DUP")
	require.True(t, ok)
	assert.Equal(t, "b.for", dup.File.Path)
	assert.Equal(t, []string{"DUP", "ONLYA"}, reg.Names())
}

func TestScanFileKeepsFirstDeclarationInFile(t *testing.T) {
	f, err := source.NewFile("d.for", []byte(lines(
		"      SUBROUTINE DUP",
		"      END",
		"      SUBROUTINE DUP",
		"      END",
	)))
	require.NoError(t, err)

	result := ScanFile(f, commons.DefaultOptions())
	require.Len(t, result.Subroutines, 1)
	assert.Equal(t, 0, result.Subroutines[0].Line)
}

func TestScanFileCollectsDiagnostics(t *testing.T) {
	f, err := source.NewFile("m.for", []byte(lines(
		"      SUBROUTINE A",
		"      COMMON X",
		"      END",
	)))
	require.NoError(t, err)

	result := ScanFile(f, commons.DefaultOptions())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, 2, result.Diagnostics[0].Line)
}

func TestAnalyze(t *testing.T) {
	src := source.MapSource{
		"a.for": lines("      SUBROUTINE DUP", "      CALL OTHER", "      END"),
		"b.for": lines("      SUBROUTINE DUP", "      END", "      SUBROUTINE OTHER", "      COMMON BAD", "      END"),
	}

	var ticks int
	a := New(WithContentSource(src), WithWorkers(1), WithProgress(func() { ticks++ }))
	scan, err := a.Analyze(context.Background(), []string{"a.for", "b.for", "missing.for"})
	require.NoError(t, err)

	assert.Equal(t, 3, ticks)
	assert.Equal(t, 2, scan.Registry.Len())
	dup, _ := scan.Registry.Lookup("DUP")
	assert.Equal(t, "b.for", dup.File.Path, "merged in path order")

	require.Len(t, scan.Failures, 1)
	assert.Equal(t, "missing.for", scan.Failures[0].Path)

	require.Len(t, scan.Diagnostics, 1)
	assert.Equal(t, "b.for", scan.Diagnostics[0].File)

	require.Len(t, scan.Files, 2)
	assert.Equal(t, "a.for", scan.Files[0].File.Path)
	assert.Len(t, scan.Files[0].Subroutines, 1)
}

func TestAnalyzeDropsFileWithOverlongLine(t *testing.T) {
	src := source.MapSource{
		"a.for": lines("      SUBROUTINE A", "      CALL B", "      END"),
		"f.for": lines(
			"      SUBROUTINE B",
			"      X = 1 ! "+strings.Repeat("Y", 2*source.MaxLineLength),
			"      CALL C",
			"      END",
			"      SUBROUTINE C",
			"      END",
		),
	}

	scan, err := New(WithContentSource(src)).Analyze(context.Background(), []string{"a.for", "f.for"})
	require.NoError(t, err)

	require.Len(t, scan.Failures, 1)
	assert.Equal(t, "f.for", scan.Failures[0].Path)
	assert.ErrorIs(t, scan.Failures[0], bufio.ErrTooLong)
	assert.Equal(t, []string{"A"}, scan.Registry.Names())
}

func TestAnalyzeStrategyOption(t *testing.T) {
	src := source.MapSource{
		"p.for": lines(
			"      SUBROUTINE P",
			"      COMMON /BLK/ X, XY",
			"      XY = X",
			"      END",
		),
	}

	for _, strategy := range []commons.Strategy{commons.StrategyToken, commons.StrategyPattern} {
		scan, err := New(WithContentSource(src), WithStrategy(strategy)).Analyze(context.Background(), []string{"p.for"})
		require.NoError(t, err)
		p, _ := scan.Registry.Lookup("P")
		assert.Equal(t, []string{"BLK.XY"}, p.Usage.MembersAssigned.Sorted(), strategy)
		assert.Equal(t, []string{"BLK.X"}, p.Usage.MembersRead.Sorted(), strategy)
	}
}

func TestAnalyzeDebugRoutinesOption(t *testing.T) {
	src := source.MapSource{
		"d.for": lines(
			"      SUBROUTINE D",
			"      COMMON /BLK/ X",
			"      CALL TRACE(X)",
			"      END",
		),
	}

	scan, err := New(WithContentSource(src), WithDebugRoutines([]string{"TRACE"})).Analyze(context.Background(), []string{"d.for"})
	require.NoError(t, err)
	d, _ := scan.Registry.Lookup("D")
	assert.True(t, d.Usage.IsEmpty())
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	_, err := New().Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithContentSource(source.MapSource{"a.for": ""})).Analyze(ctx, []string{"a.for"})
	assert.ErrorIs(t, err, context.Canceled)
}

package commons

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividroyjeong/calltree/pkg/source"
)

func newFile(lines ...string) *source.File {
	f, err := source.NewFile("test.for", []byte(strings.Join(lines, "\n")))
	if err != nil {
		panic(err)
	}
	return f
}

func TestExtractSimpleBlock(t *testing.T) {
	f := newFile(
		"      SUBROUTINE A(N)",
		"      COMMON /BLK/ X, Y(10), Z(3,4)",
		"      X = 1",
		"      END",
	)

	ext := Extract(f)
	tables := ext.Tables

	assert.Equal(t, []string{"BLK"}, tables.Blocks)
	assert.Equal(t, []string{"X", "Y", "Z"}, tables.BlockMembers["BLK"])
	for _, member := range tables.BlockMembers["BLK"] {
		owner, ok := tables.Owner(member)
		require.True(t, ok, member)
		assert.Equal(t, "BLK", owner)
	}
	assert.Empty(t, ext.Diagnostics)
}

func TestExtractContinuationLines(t *testing.T) {
	f := newFile(
		"      COMMON /V7/ A, B,",
		"     &  C(2),",
		"C     A COMMENT DOES NOT CLOSE THE BLOCK",
		"     &  D",
		"      COMMON /OTHER/ E",
		"      X = 1",
		"     &  + F",
	)

	tables := Extract(f).Tables

	assert.Equal(t, []string{"V7", "OTHER"}, tables.Blocks)
	assert.Equal(t, []string{"A", "B", "C", "D"}, tables.BlockMembers["V7"])
	assert.Equal(t, []string{"E"}, tables.BlockMembers["OTHER"])
	_, ok := tables.Owner("F")
	assert.False(t, ok, "continuation of an ordinary statement is not a member list")
}

func TestExtractCaseInsensitive(t *testing.T) {
	f := newFile("      common /blk/ x, yy")

	tables := Extract(f).Tables
	assert.Equal(t, []string{"X", "YY"}, tables.BlockMembers["BLK"])
}

func TestExtractShadowedMember(t *testing.T) {
	f := newFile(
		"      COMMON /FIRST/ X, Y",
		"      Z = 1",
		"      COMMON /SECOND/ X",
	)

	tables := Extract(f).Tables

	// Both lists keep the name; the reverse map points at the later block.
	assert.Equal(t, []string{"X", "Y"}, tables.BlockMembers["FIRST"])
	assert.Equal(t, []string{"X"}, tables.BlockMembers["SECOND"])
	owner, _ := tables.Owner("X")
	assert.Equal(t, "SECOND", owner)
	owner, _ = tables.Owner("Y")
	assert.Equal(t, "FIRST", owner)
}

func TestExtractRedeclaredBlockRestartsMembers(t *testing.T) {
	f := newFile(
		"      SUBROUTINE A",
		"      COMMON /BLK/ X, Y",
		"      END",
		"      SUBROUTINE B",
		"      COMMON /BLK/ X, Y",
		"      END",
	)

	tables := Extract(f).Tables
	assert.Equal(t, []string{"BLK"}, tables.Blocks)
	assert.Equal(t, []string{"X", "Y"}, tables.BlockMembers["BLK"])
}

func TestExtractMalformedCommon(t *testing.T) {
	f := newFile(
		"      COMMON X, Y",
		"     &  Z",
		"      COMMON /GOOD/ W",
	)

	ext := Extract(f)

	require.Len(t, ext.Diagnostics, 1)
	assert.Equal(t, 1, ext.Diagnostics[0].Line)
	assert.Equal(t, "malformed COMMON declaration", ext.Diagnostics[0].Reason)
	assert.Contains(t, ext.Diagnostics[0].String(), "test.for:1")
	assert.Equal(t, []string{"GOOD"}, ext.Tables.Blocks)
	_, ok := ext.Tables.Owner("Z")
	assert.False(t, ok)
}

func TestParseMembers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"X, Y", []string{"X", "Y"}},
		{" X(10) , Y(2,3),", []string{"X", "Y"}},
		{"", nil},
		{"X, 1BAD, Y", []string{"X"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMembers(tt.in))
		})
	}
}

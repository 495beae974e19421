// Package commons extracts COMMON block descriptors from FORTRAN source and
// classifies how a file or a single subroutine uses their members.
package commons

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vividroyjeong/calltree/pkg/fortran"
	"github.com/vividroyjeong/calltree/pkg/models"
	"github.com/vividroyjeong/calltree/pkg/source"
)

var (
	commonPattern     = regexp.MustCompile(`^\s*COMMON.*/\s*([A-Z][A-Z0-9_]*)\s*/(.*)`)
	commonKeyword     = regexp.MustCompile(`^\s*COMMON\b`)
	memberNamePattern = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_]*)(?:\([^)]+\))?\s*(?:,|$)`)
)

// Diagnostic describes a line the extractor could not interpret.
type Diagnostic struct {
	File   string `json:"file"`
	Line   int    `json:"line"` // one-based
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Reason, strings.TrimSpace(d.Text))
}

// Extraction is the result of scanning one file for COMMON declarations.
type Extraction struct {
	Tables      *models.Tables
	Diagnostics []Diagnostic
}

// Extract builds the block and member tables of f.
//
// A COMMON line opens a block context and continuation lines directly after
// it extend the same block; any other code line closes the context. A block
// redeclared later in the file restarts its member list.
func Extract(f *source.File) Extraction {
	tables := models.NewTables()
	var diags []Diagnostic

	block := ""
	for i, line := range f.Lines {
		if fortran.IsComment(line) {
			continue
		}

		var members []string
		if m := commonPattern.FindStringSubmatch(line); m != nil {
			block = m[1]
			if _, seen := tables.BlockMembers[block]; !seen {
				tables.Blocks = append(tables.Blocks, block)
			}
			tables.BlockMembers[block] = []string{}
			members = parseMembers(m[2])
		} else if block != "" && fortran.IsContinuation(line) {
			members = parseMembers(strings.TrimLeft(line, " \t")[1:])
		} else {
			block = ""
			if commonKeyword.MatchString(line) {
				diags = append(diags, Diagnostic{
					File:   f.Path,
					Line:   i + 1,
					Text:   line,
					Reason: "malformed COMMON declaration",
				})
			}
			continue
		}

		tables.BlockMembers[block] = append(tables.BlockMembers[block], members...)
		for _, member := range members {
			tables.MemberBlock[member] = block
		}
	}

	return Extraction{Tables: tables, Diagnostics: diags}
}

// parseMembers splits a member list such as "X, Y(10), Z(3,4)" into names,
// dropping dimensions. Parsing stops at the first entry that is not a name.
func parseMembers(s string) []string {
	var members []string
	s = strings.TrimSpace(s)
	for s != "" {
		loc := memberNamePattern.FindStringSubmatchIndex(s)
		if loc == nil {
			break
		}
		members = append(members, s[loc[2]:loc[3]])
		s = strings.TrimSpace(s[loc[1]:])
	}
	return members
}

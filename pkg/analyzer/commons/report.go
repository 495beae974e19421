package commons

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/vividroyjeong/calltree/internal/output"
	"github.com/vividroyjeong/calltree/pkg/fortran"
	"github.com/vividroyjeong/calltree/pkg/models"
	"github.com/vividroyjeong/calltree/pkg/source"
)

// membersPerLine is how many members the text listing prints per line.
const membersPerLine = 8

// ErrRoutineNotFound is returned when a usage report names a routine the file
// does not declare.
var ErrRoutineNotFound = errors.New("routine not found")

// UsageReport lists the common-block usages of a file or one of its routines.
type UsageReport struct {
	Data models.CommonsReport
}

// NewUsageReport extracts the tables of f and classifies the whole file, or
// only routine when it is not empty.
func NewUsageReport(f *source.File, routine string, opts Options) (*UsageReport, error) {
	routine = strings.ToUpper(routine)
	if routine != "" {
		if _, _, ok := fortran.Body(f.Lines, routine); !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrRoutineNotFound, routine, f.Name)
		}
	}

	tables := Extract(f).Tables
	usage := Classify(f, tables, routine, opts)
	return &UsageReport{Data: models.NewCommonsReport(f.Name, routine, usage)}, nil
}

func (r *UsageReport) header() string {
	if r.Data.Routine != "" {
		return fmt.Sprintf("Listing common usages in %s (%s)", r.Data.File, r.Data.Routine)
	}
	return "Listing common usages in " + r.Data.File
}

func (r *UsageReport) RenderText(w io.Writer, colored bool) error {
	header := r.header()
	if colored {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintln(w, header)
	r.writeBody(w)
	return nil
}

func (r *UsageReport) writeBody(w io.Writer) {
	if r.Data.IsEmpty() {
		fmt.Fprintln(w, "No usages or assignments of common block variables")
		return
	}
	fmt.Fprintf(w, "Common blocks assigned: %s\n", strings.Join(r.Data.BlocksAssigned, ", "))
	writeChunked(w, "Assignments", r.Data.MembersAssigned)
	fmt.Fprintf(w, "Common blocks used: %s\n", strings.Join(r.Data.BlocksRead, ", "))
	writeChunked(w, "Usages", r.Data.MembersRead)
}

func writeChunked(w io.Writer, label string, items []string) {
	for len(items) > 0 {
		n := min(membersPerLine, len(items))
		fmt.Fprintf(w, "%s: %s\n", label, strings.Join(items[:n], ", "))
		items = items[n:]
	}
}

func (r *UsageReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "## %s\n\n", r.header())
	fmt.Fprintln(w, "```")
	r.writeBody(w)
	fmt.Fprintln(w, "```")
	return nil
}

func (r *UsageReport) RenderData() any {
	return r.Data
}

// BlockEntry describes one declared block. Shadowed lists members whose
// owning block is another block declared later in the file.
type BlockEntry struct {
	Block    string   `json:"block"`
	Members  []string `json:"members"`
	Shadowed []string `json:"shadowed,omitempty"`
}

// BlocksTable returns the blocks of f with their members as a table. A
// shadowed member is marked with its owner, e.g. "X (-> SECOND)".
func BlocksTable(f *source.File) (*output.Table, []Diagnostic) {
	ex := Extract(f)
	tables := ex.Tables

	entries := make([]BlockEntry, 0, len(tables.Blocks))
	rows := make([][]string, 0, len(tables.Blocks))
	total := 0
	for _, block := range tables.Blocks {
		members := tables.BlockMembers[block]
		entry := BlockEntry{Block: block, Members: members}
		shown := make([]string, len(members))
		for i, m := range members {
			shown[i] = m
			if owner, _ := tables.Owner(m); owner != block {
				entry.Shadowed = append(entry.Shadowed, m)
				shown[i] = fmt.Sprintf("%s (-> %s)", m, owner)
			}
		}
		total += len(members)
		entries = append(entries, entry)
		rows = append(rows, []string{block, fmt.Sprintf("%d", len(members)), strings.Join(shown, ", ")})
	}

	footer := []string{fmt.Sprintf("%d blocks", len(entries)), fmt.Sprintf("%d", total), ""}
	table := output.NewTable("Common blocks in "+f.Name, []string{"Block", "Count", "Members"}, rows, footer, entries)
	return table, ex.Diagnostics
}

package calltree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/vividroyjeong/calltree/pkg/models"
)

// DefaultIgnoredBlocks are infrastructure blocks left out of every rendered
// usage summary.
var DefaultIgnoredBlocks = []string{"UNITS", "UNITS3", "UNITS4", "LIBCOMMON"}

// Layout holds the indentation and wrapping thresholds of the text tree.
type Layout struct {
	Indent       int // spaces per depth level
	WrapIndent   int // extra spaces before wrapped annotation lines
	SectionWidth int // wrap when either annotation is longer
	TotalWidth   int // wrap when both annotations together are longer
}

// DefaultLayout returns the standard layout.
func DefaultLayout() Layout {
	return Layout{Indent: 4, WrapIndent: 7, SectionWidth: 60, TotalWidth: 90}
}

// RenderOptions configures tree construction and rendering.
type RenderOptions struct {
	// BlocksOnly shows block names without their members.
	BlocksOnly bool
	// AssignmentsOnly drops the usages (reads) annotation.
	AssignmentsOnly bool
	// ExcludeNoCommonsUsages omits a subtree when no node in it touches a
	// non-ignored block.
	ExcludeNoCommonsUsages bool
	IgnoredBlocks          models.StringSet
	Layout                 Layout
}

// DefaultRenderOptions returns options with the default ignored blocks and layout.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		IgnoredBlocks: models.NewStringSet(DefaultIgnoredBlocks...),
		Layout:        DefaultLayout(),
	}
}

// BuildTree walks the call graph from root depth first and returns the
// annotated tree. The call tree is built first when root has not been scanned.
//
// A subroutine already on the current path is emitted once more as a
// Recursive leaf and not descended into; a subroutine reached along several
// acyclic paths appears under each caller. The result is nil when
// ExcludeNoCommonsUsages omits the root itself.
func BuildTree(reg *Registry, root string, opts RenderOptions) (*models.CallTreeNode, error) {
	s, ok := reg.Lookup(root)
	if !ok {
		return nil, &NotFoundError{Name: strings.ToUpper(root)}
	}
	if !s.Visited {
		if err := BuildCallTree(reg, s.Name); err != nil {
			return nil, err
		}
	}

	b := &treeBuilder{
		reg:  reg,
		opts: opts,
		path: make(map[string]bool),
	}
	if opts.ExcludeNoCommonsUsages {
		b.keep = subtreeTouches(reg, s.Name, opts.IgnoredBlocks, !opts.AssignmentsOnly)
	}
	return b.node(s), nil
}

type treeBuilder struct {
	reg  *Registry
	opts RenderOptions
	keep map[string]bool // nil when nothing is excluded
	path map[string]bool
}

func (b *treeBuilder) node(s *Subroutine) *models.CallTreeNode {
	if b.keep != nil && !b.keep[s.Name] {
		return nil
	}

	n := &models.CallTreeNode{Name: s.Name, File: s.File.Path}
	if b.path[s.Name] {
		n.Recursive = true
		return n
	}

	n.Assignments = b.group(s.Usage.BlocksAssigned, s.Usage.MembersAssigned)
	if !b.opts.AssignmentsOnly {
		n.Usages = b.group(s.Usage.BlocksRead, s.Usage.MembersRead)
	}

	b.path[s.Name] = true
	for _, callee := range s.Callees {
		if child := b.node(b.reg.entries[callee]); child != nil {
			n.Callees = append(n.Callees, child)
		}
	}
	delete(b.path, s.Name)
	return n
}

func (b *treeBuilder) group(blocks, members models.StringSet) []models.BlockUsage {
	grouped := models.GroupByBlock(blocks, members, b.opts.IgnoredBlocks)
	if b.opts.BlocksOnly {
		for i := range grouped {
			grouped[i].Members = nil
		}
	}
	return grouped
}

// Render returns the text call tree rooted at root, without a header.
func Render(reg *Registry, root string, opts RenderOptions) (string, error) {
	tree, err := BuildTree(reg, root, opts)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	WriteTree(&sb, tree, opts.Layout, false)
	return sb.String(), nil
}

// WriteTree writes tree as indented text, one node per line unless the
// annotations exceed the layout widths.
func WriteTree(w io.Writer, tree *models.CallTreeNode, layout Layout, colored bool) {
	if tree == nil {
		return
	}
	writeNode(w, tree, layout, colored, 0)
}

func writeNode(w io.Writer, n *models.CallTreeNode, layout Layout, colored bool, indent int) {
	pad := strings.Repeat(" ", indent)
	name := n.Name
	if colored {
		name = color.New(color.Bold).Sprint(n.Name)
	}

	if n.Recursive {
		fmt.Fprintf(w, "%s%s (recursive)\n", pad, name)
		return
	}

	assignments := annotation("assignments", n.Assignments)
	usages := annotation("usages", n.Usages)

	if len(assignments) > layout.SectionWidth || len(usages) > layout.SectionWidth ||
		len(assignments)+len(usages) > layout.TotalWidth {
		fmt.Fprintf(w, "%s%s\n", pad, name)
		wrapPad := strings.Repeat(" ", indent+layout.WrapIndent)
		if assignments != "" {
			fmt.Fprintf(w, "%s%s\n", wrapPad, assignments)
		}
		if usages != "" {
			fmt.Fprintf(w, "%s%s\n", wrapPad, usages)
		}
	} else {
		fmt.Fprintf(w, "%s%s%s%s\n", pad, name, assignments, usages)
	}

	for _, child := range n.Callees {
		writeNode(w, child, layout, colored, indent+layout.Indent)
	}
}

// annotation formats " label: BLK(X, Y), V7(A)", or "" when usages is empty.
func annotation(label string, usages []models.BlockUsage) string {
	if len(usages) == 0 {
		return ""
	}
	parts := make([]string, len(usages))
	for i, u := range usages {
		parts[i] = u.Block + "(" + strings.Join(u.Members, ", ") + ")"
	}
	return " " + label + ": " + strings.Join(parts, ", ")
}

// TreeReport renders a call tree with its header line.
type TreeReport struct {
	Root   string               `json:"root"`
	Tree   *models.CallTreeNode `json:"tree"`
	Layout Layout               `json:"-"`
}

// NewTreeReport builds the tree rooted at root and wraps it for output.
func NewTreeReport(reg *Registry, root string, opts RenderOptions) (*TreeReport, error) {
	tree, err := BuildTree(reg, root, opts)
	if err != nil {
		return nil, err
	}
	return &TreeReport{Root: strings.ToUpper(root), Tree: tree, Layout: opts.Layout}, nil
}

func (r *TreeReport) header() string {
	return "Listing call tree rooted at " + r.Root
}

func (r *TreeReport) RenderText(w io.Writer, colored bool) error {
	fmt.Fprintln(w, r.header())
	WriteTree(w, r.Tree, r.Layout, colored)
	return nil
}

func (r *TreeReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "## Call tree rooted at %s\n\n", r.Root)
	fmt.Fprintln(w, "```")
	WriteTree(w, r.Tree, r.Layout, false)
	fmt.Fprintln(w, "```")
	return nil
}

func (r *TreeReport) RenderData() any {
	return r
}

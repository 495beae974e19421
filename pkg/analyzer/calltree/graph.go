package calltree

import (
	"fmt"
	"io"
	"strings"

	"github.com/vividroyjeong/calltree/pkg/models"
)

// ExportGraph returns the call graph reachable from root as nodes and edges.
// Nodes are listed in breadth-first order from root; edges keep callee order.
func ExportGraph(reg *Registry, root string, ignored models.StringSet) (*models.CallGraph, error) {
	root = strings.ToUpper(root)
	if err := BuildCallTree(reg, root); err != nil {
		return nil, err
	}

	g := reachableGraph(reg, []string{root})
	cg := models.NewCallGraph(root)
	for _, name := range g.names {
		s := reg.entries[name]
		cg.AddNode(models.GraphNode{
			ID:     name,
			File:   s.File.Path,
			Line:   s.Line + 1,
			Blocks: touchedBlocks(s.Usage, ignored),
		})
		for _, callee := range s.Callees {
			cg.AddEdge(models.GraphEdge{From: name, To: callee})
		}
	}
	return cg, nil
}

func touchedBlocks(u models.UsageSet, ignored models.StringSet) int {
	blocks := models.NewStringSet()
	for b := range u.BlocksAssigned {
		blocks.Add(b)
	}
	for b := range u.BlocksRead {
		blocks.Add(b)
	}
	count := 0
	for b := range blocks {
		if !ignored.Has(b) {
			count++
		}
	}
	return count
}

// GraphReport renders an exported call graph as Mermaid.
type GraphReport struct {
	Graph *models.CallGraph
}

func (r *GraphReport) RenderText(w io.Writer, _ bool) error {
	_, err := io.WriteString(w, r.Graph.ToMermaid())
	return err
}

func (r *GraphReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "## Call graph rooted at %s\n\n", r.Graph.Root)
	fmt.Fprintln(w, "```mermaid")
	if _, err := io.WriteString(w, r.Graph.ToMermaid()); err != nil {
		return err
	}
	fmt.Fprintln(w, "```")
	return nil
}

func (r *GraphReport) RenderData() any {
	return r.Graph
}

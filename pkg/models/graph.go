package models

import "strings"

// GraphNode is a subroutine in an exported call graph.
type GraphNode struct {
	ID     string `json:"id"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Blocks int    `json:"blocks,omitempty"` // non-ignored blocks touched
}

// GraphEdge is a call from one subroutine to another.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CallGraph is the flat node/edge form of a call graph.
type CallGraph struct {
	Root  string      `json:"root,omitempty"`
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// NewCallGraph creates an empty graph.
func NewCallGraph(root string) *CallGraph {
	return &CallGraph{
		Root:  root,
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
	}
}

// AddNode adds a node to the graph.
func (g *CallGraph) AddNode(node GraphNode) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph.
func (g *CallGraph) AddEdge(edge GraphEdge) {
	g.Edges = append(g.Edges, edge)
}

// ToMermaid generates Mermaid flowchart syntax for the graph.
func (g *CallGraph) ToMermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		b.WriteString("    " + sanitizeMermaidID(node.ID) + "[\"" + node.ID + "\"]\n")
	}
	for _, edge := range g.Edges {
		b.WriteString("    " + sanitizeMermaidID(edge.From) + " --> " + sanitizeMermaidID(edge.To) + "\n")
	}

	return b.String()
}

// sanitizeMermaidID makes an ID safe for Mermaid.
func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

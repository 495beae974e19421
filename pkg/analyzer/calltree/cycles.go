package calltree

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vividroyjeong/calltree/pkg/models"
)

// gonumGraph holds the gonum representation of the built call graph and the
// name mappings.
type gonumGraph struct {
	directed  *simple.DirectedGraph
	ids       map[string]int64
	names     []string // gonum ID -> subroutine name
	selfCalls map[string]bool
}

// reachableGraph converts the part of the call graph reachable from roots.
// Node IDs follow breadth-first discovery order.
func reachableGraph(reg *Registry, roots []string) *gonumGraph {
	g := &gonumGraph{
		directed:  simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		selfCalls: make(map[string]bool),
	}

	var queue []string
	visit := func(name string) {
		if _, seen := g.ids[name]; seen {
			return
		}
		id := int64(len(g.names))
		g.ids[name] = id
		g.names = append(g.names, name)
		g.directed.AddNode(simple.Node(id))
		queue = append(queue, name)
	}

	for _, root := range roots {
		visit(root)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, callee := range reg.entries[name].Callees {
			visit(callee)
			// gonum simple graphs do not support self-loops
			if callee == name {
				g.selfCalls[name] = true
				continue
			}
			g.directed.SetEdge(simple.Edge{F: simple.Node(g.ids[name]), T: simple.Node(g.ids[callee])})
		}
	}
	return g
}

// components returns the strongly connected components and the component
// index of every node ID.
func (g *gonumGraph) components() ([][]graph.Node, map[int64]int) {
	sccs := topo.TarjanSCC(g.directed)
	comp := make(map[int64]int, len(g.names))
	for i, scc := range sccs {
		for _, n := range scc {
			comp[n.ID()] = i
		}
	}
	return sccs, comp
}

// subtreeTouches reports, for every subroutine reachable from root, whether it
// or anything it reaches touches a non-ignored block.
//
// Members of one strongly connected component reach each other, so they share
// the answer. The components form a DAG, and each component is resolved once.
func subtreeTouches(reg *Registry, root string, ignored models.StringSet, includeReads bool) map[string]bool {
	g := reachableGraph(reg, []string{root})
	sccs, comp := g.components()

	own := make([]bool, len(sccs))
	for id, name := range g.names {
		if reg.entries[name].Usage.Touches(ignored, includeReads) {
			own[comp[int64(id)]] = true
		}
	}

	const (
		unknown = iota
		no
		yes
	)
	memo := make([]int, len(sccs))
	var resolve func(c int) bool
	resolve = func(c int) bool {
		if memo[c] != unknown {
			return memo[c] == yes
		}
		found := own[c]
		for _, n := range sccs[c] {
			if found {
				break
			}
			succ := g.directed.From(n.ID())
			for succ.Next() {
				if d := comp[succ.Node().ID()]; d != c && resolve(d) {
					found = true
					break
				}
			}
		}
		memo[c] = no
		if found {
			memo[c] = yes
		}
		return found
	}

	touches := make(map[string]bool, len(g.names))
	for id, name := range g.names {
		touches[name] = resolve(comp[int64(id)])
	}
	return touches
}

// FindCycles returns the groups of mutually recursive subroutines reachable
// from root, or in the whole corpus when root is empty. A subroutine that
// calls itself forms a group of one. Members and groups are sorted by name.
func FindCycles(reg *Registry, root string) ([]models.Cycle, error) {
	var roots []string
	if root == "" {
		BuildAll(reg)
		roots = reg.Names()
	} else {
		root = strings.ToUpper(root)
		if err := BuildCallTree(reg, root); err != nil {
			return nil, err
		}
		roots = []string{root}
	}

	g := reachableGraph(reg, roots)
	sccs, _ := g.components()

	cycles := make([]models.Cycle, 0)
	for _, scc := range sccs {
		if len(scc) == 1 && !g.selfCalls[g.names[scc[0].ID()]] {
			continue
		}
		members := make([]string, len(scc))
		for i, n := range scc {
			members[i] = g.names[n.ID()]
		}
		sort.Strings(members)
		cycles = append(cycles, models.Cycle{Members: members})
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Members[0] < cycles[j].Members[0]
	})
	return cycles, nil
}

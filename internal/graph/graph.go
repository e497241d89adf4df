package graph

import "fmt"

// Graph is an immutable mapping of agent IDs to nodes. Insertion order is
// kept so that every derived view (validation errors, execution levels,
// roots, leaves) is deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// New builds a graph from the given nodes. It fails on an empty or
// duplicate agent ID before any other processing happens.
func New(nodes []*Node) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*Node, len(nodes)),
		order: make([]string, 0, len(nodes)),
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("agent with empty id (task %q)", n.Task)
		}
		if _, exists := g.nodes[n.ID]; exists {
			return nil, fmt.Errorf("duplicate agent id %q", n.ID)
		}
		if n.Priority == "" {
			n.Priority = PriorityMedium
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}
	return g, nil
}

// Len returns the number of agents in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// IDs returns all agent IDs in insertion order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether an agent with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// FindCycle searches the dependency graph for a cycle using DFS with a
// recursion stack. It returns one concrete cycle path, closed by repeating
// the starting agent, or nil if the graph is acyclic. Edges pointing at
// unknown agents are ignored; those are reported as missing dependencies
// elsewhere.
func (g *Graph) FindCycle() []string {
	visited := make(map[string]bool, len(g.order))
	inStack := make(map[string]bool, len(g.order))
	path := make([]string, 0, len(g.order))

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		inStack[id] = true
		path = append(path, id)

		node := g.nodes[id]
		for _, dep := range node.DependsOn {
			if !g.Has(dep) {
				continue
			}
			if !visited[dep] {
				if dfs(dep) {
					return true
				}
			} else if inStack[dep] {
				// Found a back edge. Close the loop from dep onward.
				for i, p := range path {
					if p == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						break
					}
				}
				return true
			}
		}

		path = path[:len(path)-1]
		inStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return cycle
			}
		}
	}
	return nil
}

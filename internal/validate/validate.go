// Package validate checks agent dependency graphs for structural defects
// before they are scheduled: missing and self dependencies, cycles, depth
// limits, and orphaned agents.
package validate

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/swamp-dev/agentplan/internal/graph"
)

// DefaultMaxDepth is the dependency depth limit used by callers that do not
// configure their own.
const DefaultMaxDepth = 10

// ErrorKind identifies a category of dependency validation failure.
type ErrorKind string

const (
	KindMissingDependency  ErrorKind = "missing_dependency"
	KindSelfDependency     ErrorKind = "self_dependency"
	KindCircularDependency ErrorKind = "circular_dependency"
	KindMaxDepthExceeded   ErrorKind = "max_depth_exceeded"
	KindOrphanedAgent      ErrorKind = "orphaned_agent"
)

// Error describes a single validation failure. Errors are accumulated and
// returned as a batch so every defect in a graph surfaces in one pass.
type Error struct {
	Kind         ErrorKind `yaml:"error_type" json:"error_type"`
	Message      string    `yaml:"message" json:"message"`
	AgentID      string    `yaml:"agent_id,omitempty" json:"agent_id,omitempty"`
	DependencyID string    `yaml:"dependency_id,omitempty" json:"dependency_id,omitempty"`
	CyclePath    []string  `yaml:"cycle_path,omitempty" json:"cycle_path,omitempty"`
}

// Validator checks one dependency graph. It is owned by a single caller;
// derived views such as depths are computed lazily and memoized.
type Validator struct {
	g            *graph.Graph
	maxDepth     int
	allowOrphans bool

	depthCache map[string]int
}

// New creates a validator for the given graph. Construction never fails;
// all graph defects surface through Validate.
func New(g *graph.Graph, maxDepth int, allowOrphans bool) *Validator {
	return &Validator{g: g, maxDepth: maxDepth, allowOrphans: allowOrphans}
}

// Validate runs every check unconditionally and reports all problems found.
// The returned bool is true iff the error list is empty.
func (v *Validator) Validate() (bool, []*Error) {
	var errs []*Error
	errs = append(errs, v.checkMissingDependencies()...)
	errs = append(errs, v.checkSelfDependencies()...)
	errs = append(errs, v.checkCircularDependencies()...)
	errs = append(errs, v.checkDepthLimits()...)
	if !v.allowOrphans {
		errs = append(errs, v.checkOrphanedAgents()...)
	}
	return len(errs) == 0, errs
}

// checkMissingDependencies reports every dependency reference that names an
// agent absent from the graph.
func (v *Validator) checkMissingDependencies() []*Error {
	var errs []*Error
	for _, n := range v.g.Nodes() {
		for _, dep := range n.DependsOn {
			if !v.g.Has(dep) {
				errs = append(errs, &Error{
					Kind:         KindMissingDependency,
					Message:      fmt.Sprintf("agent %q depends on non-existent agent %q", n.ID, dep),
					AgentID:      n.ID,
					DependencyID: dep,
				})
			}
		}
	}
	return errs
}

// checkSelfDependencies reports agents that list themselves as a dependency.
func (v *Validator) checkSelfDependencies() []*Error {
	var errs []*Error
	for _, n := range v.g.Nodes() {
		for _, dep := range n.DependsOn {
			if dep == n.ID {
				errs = append(errs, &Error{
					Kind:      KindSelfDependency,
					Message:   fmt.Sprintf("agent %q depends on itself", n.ID),
					AgentID:   n.ID,
					CyclePath: []string{n.ID, n.ID},
				})
				break
			}
		}
	}
	return errs
}

// checkCircularDependencies attempts a topological ordering of the graph and
// emits exactly one error when it fails, with a concrete cycle path found by
// DFS for diagnostics. Self-loops also fail the ordering; they are reported
// separately by the self-dependency check.
func (v *Validator) checkCircularDependencies() []*Error {
	var edges []toposort.Edge
	for _, n := range v.g.Nodes() {
		if len(n.DependsOn) == 0 {
			// No incoming edges; anchor the node so it is still ordered.
			edges = append(edges, toposort.Edge{nil, n.ID})
			continue
		}
		for _, dep := range n.DependsOn {
			// Edge (dep, id) means dep must complete before id.
			edges = append(edges, toposort.Edge{dep, n.ID})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return []*Error{{
			Kind:      KindCircularDependency,
			Message:   fmt.Sprintf("circular dependency detected in agent graph: %v", err),
			CyclePath: v.g.FindCycle(),
		}}
	}
	return nil
}

// checkDepthLimits flags every agent whose dependency depth exceeds the
// configured limit.
func (v *Validator) checkDepthLimits() []*Error {
	depths := v.depths()

	var errs []*Error
	for _, id := range v.g.IDs() {
		if d := depths[id]; d > v.maxDepth {
			errs = append(errs, &Error{
				Kind:    KindMaxDepthExceeded,
				Message: fmt.Sprintf("agent %q has dependency depth %d, exceeds limit of %d", id, d, v.maxDepth),
				AgentID: id,
			})
		}
	}
	return errs
}

// checkOrphanedAgents flags agents with no dependencies. Only runs when the
// validator was configured to disallow orphans.
func (v *Validator) checkOrphanedAgents() []*Error {
	var errs []*Error
	for _, n := range v.g.Nodes() {
		if len(n.DependsOn) == 0 {
			errs = append(errs, &Error{
				Kind:    KindOrphanedAgent,
				Message: fmt.Sprintf("agent %q has no dependencies (orphaned)", n.ID),
				AgentID: n.ID,
			})
		}
	}
	return errs
}

// depths returns the dependency depth of every agent, computing and caching
// the full map on first use.
func (v *Validator) depths() map[string]int {
	if v.depthCache != nil {
		return v.depthCache
	}

	depths := make(map[string]int, v.g.Len())
	for _, id := range v.g.IDs() {
		if _, done := depths[id]; !done {
			v.computeDepth(id, depths)
		}
	}

	v.depthCache = depths
	return depths
}

// computeDepth resolves one agent's dependency depth without recursion,
// walking the dependency chain with an explicit stack. An agent with no
// dependencies has depth 0; otherwise depth is 1 + the deepest dependency.
// Dependencies that are missing or already on the current path count as
// depth 0, so malformed (cyclic) input still terminates.
func (v *Validator) computeDepth(start string, depths map[string]int) {
	type frame struct {
		id   string
		next int
	}

	onPath := map[string]bool{start: true}
	stack := []frame{{id: start}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		node, _ := v.g.Node(f.id)

		if f.next < len(node.DependsOn) {
			dep := node.DependsOn[f.next]
			f.next++

			if _, done := depths[dep]; done {
				continue
			}
			if !v.g.Has(dep) || onPath[dep] {
				continue
			}

			onPath[dep] = true
			stack = append(stack, frame{id: dep})
			continue
		}

		// All dependencies resolved; fold them into this agent's depth.
		// Unresolved deps read as 0 from the map.
		depth := 0
		for _, dep := range node.DependsOn {
			if d := depths[dep] + 1; d > depth {
				depth = d
			}
		}
		depths[f.id] = depth

		delete(onPath, f.id)
		stack = stack[:len(stack)-1]
	}
}

// DependencyDepth returns the dependency depth of a single agent.
func (v *Validator) DependencyDepth(id string) (int, error) {
	if !v.g.Has(id) {
		return 0, fmt.Errorf("agent %q not found", id)
	}
	return v.depths()[id], nil
}

// RootAgents returns the agents with no dependencies, in insertion order.
func (v *Validator) RootAgents() []string {
	var roots []string
	for _, n := range v.g.Nodes() {
		if len(n.DependsOn) == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// LeafAgents returns the agents no other agent depends on, in insertion
// order.
func (v *Validator) LeafAgents() []string {
	dependedOn := make(map[string]bool)
	for _, n := range v.g.Nodes() {
		for _, dep := range n.DependsOn {
			dependedOn[dep] = true
		}
	}

	var leaves []string
	for _, id := range v.g.IDs() {
		if !dependedOn[id] {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Stats summarizes the shape of a dependency graph.
type Stats struct {
	TotalAgents             int     `yaml:"total_agents" json:"total_agents"`
	TotalDependencies       int     `yaml:"total_dependencies" json:"total_dependencies"`
	RootAgents              int     `yaml:"root_agents" json:"root_agents"`
	LeafAgents              int     `yaml:"leaf_agents" json:"leaf_agents"`
	MaxDepth                int     `yaml:"max_depth" json:"max_depth"`
	AvgDependenciesPerAgent float64 `yaml:"avg_dependencies_per_agent" json:"avg_dependencies_per_agent"`
}

// Stats computes aggregate statistics for the graph. All fields are zero for
// an empty graph.
func (v *Validator) Stats() Stats {
	stats := Stats{
		TotalAgents: v.g.Len(),
		RootAgents:  len(v.RootAgents()),
		LeafAgents:  len(v.LeafAgents()),
	}

	for _, n := range v.g.Nodes() {
		stats.TotalDependencies += len(n.DependsOn)
	}
	for _, d := range v.depths() {
		if d > stats.MaxDepth {
			stats.MaxDepth = d
		}
	}
	if stats.TotalAgents > 0 {
		stats.AvgDependenciesPerAgent = float64(stats.TotalDependencies) / float64(stats.TotalAgents)
	}

	return stats
}

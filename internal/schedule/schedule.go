// Package schedule turns a validated agent dependency graph into a wave-based
// execution plan: topological levels, timing estimates, and a durable plan
// document that survives restarts.
package schedule

import (
	"fmt"
	"math"
	"strings"

	"github.com/swamp-dev/agentplan/internal/graph"
)

// Level is one wave of the execution plan. All agents in a level have their
// dependencies satisfied by earlier levels and can run concurrently.
type Level struct {
	Level            int      `yaml:"level" json:"level"`
	Agents           []string `yaml:"agents" json:"agents"`
	Parallelizable   bool     `yaml:"parallelizable" json:"parallelizable"`
	EstimatedMinutes *int     `yaml:"estimated_duration_minutes,omitempty" json:"estimated_duration_minutes,omitempty"`
}

// Summary aggregates the full schedule with its timing metrics.
type Summary struct {
	Levels                 []*Level `yaml:"levels" json:"levels"`
	TotalAgents            int      `yaml:"total_agents" json:"total_agents"`
	TotalLevels            int      `yaml:"total_levels" json:"total_levels"`
	TotalSequentialMinutes int      `yaml:"total_sequential_minutes" json:"total_sequential_minutes"`
	TotalParallelMinutes   int      `yaml:"total_parallel_minutes" json:"total_parallel_minutes"`
	TimeSavedPercent       float64  `yaml:"time_saved_percent" json:"time_saved_percent"`
	MaxParallelism         int      `yaml:"max_parallelism" json:"max_parallelism"`
}

// Scheduler computes execution waves for an agent dependency graph.
type Scheduler struct {
	g *graph.Graph
}

// New creates a scheduler for the given graph. Unlike validation, which
// collects problems, scheduling an incomplete graph is a hard error: every
// dependency reference must resolve to a known agent.
func New(g *graph.Graph) (*Scheduler, error) {
	for _, node := range g.Nodes() {
		for _, dep := range node.DependsOn {
			if !g.Has(dep) {
				return nil, fmt.Errorf("agent %q depends on non-existent agent %q", node.ID, dep)
			}
		}
	}
	return &Scheduler{g: g}, nil
}

// DetectCycles returns the concrete cycle path (closed by repeating the
// starting agent) or nil when the graph is acyclic.
func (s *Scheduler) DetectCycles() []string {
	return s.g.FindCycle()
}

// TopologicalSort groups agents into execution levels. Level 0 holds agents
// with no dependencies; each subsequent level holds agents whose dependencies
// all appear in earlier levels. Within a level agents keep their declaration
// order.
func (s *Scheduler) TopologicalSort() ([]*Level, error) {
	if cycle := s.g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("cannot schedule: circular dependency %s", strings.Join(cycle, " -> "))
	}

	done := make(map[string]bool, s.g.Len())
	var levels []*Level
	for len(done) < s.g.Len() {
		var ready []string
		for _, id := range s.g.IDs() {
			if done[id] {
				continue
			}
			node, _ := s.g.Node(id)
			blocked := false
			for _, dep := range node.DependsOn {
				if !done[dep] {
					blocked = true
					break
				}
			}
			if !blocked {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			// Unreachable after the cycle guard, kept as a safety net.
			return nil, fmt.Errorf("cannot schedule: no ready agents among %d remaining", s.g.Len()-len(done))
		}
		for _, id := range ready {
			done[id] = true
		}
		levels = append(levels, &Level{
			Level:            len(levels),
			Agents:           ready,
			Parallelizable:   len(ready) > 1,
			EstimatedMinutes: s.levelDuration(ready),
		})
	}
	return levels, nil
}

// levelDuration estimates wall-clock minutes for one level: the maximum of
// the known estimates when the agents run in parallel, their sum otherwise.
// Nil when no agent in the level carries an estimate.
func (s *Scheduler) levelDuration(ids []string) *int {
	var sum, max int
	known := false
	for _, id := range ids {
		node, _ := s.g.Node(id)
		if node.EstimatedMinutes == nil {
			continue
		}
		known = true
		sum += *node.EstimatedMinutes
		if *node.EstimatedMinutes > max {
			max = *node.EstimatedMinutes
		}
	}
	if !known {
		return nil
	}
	if len(ids) > 1 {
		return &max
	}
	return &sum
}

// Summary computes the schedule along with sequential vs parallel timing.
// Sequential time sums every known agent estimate; parallel time sums the
// per-level durations. Agents without estimates contribute to neither.
func (s *Scheduler) Summary() (*Summary, error) {
	levels, err := s.TopologicalSort()
	if err != nil {
		return nil, err
	}

	sequential := 0
	for _, node := range s.g.Nodes() {
		if node.EstimatedMinutes != nil {
			sequential += *node.EstimatedMinutes
		}
	}

	parallel := 0
	maxWidth := 0
	for _, lvl := range levels {
		if lvl.EstimatedMinutes != nil {
			parallel += *lvl.EstimatedMinutes
		}
		if len(lvl.Agents) > maxWidth {
			maxWidth = len(lvl.Agents)
		}
	}

	saved := 0.0
	if sequential > 0 {
		saved = math.Round(float64(sequential-parallel)*1000/float64(sequential)) / 10
	}

	return &Summary{
		Levels:                 levels,
		TotalAgents:            s.g.Len(),
		TotalLevels:            len(levels),
		TotalSequentialMinutes: sequential,
		TotalParallelMinutes:   parallel,
		TimeSavedPercent:       saved,
		MaxParallelism:         maxWidth,
	}, nil
}

// Package graph defines the agent dependency graph shared by the
// validator and the scheduler.
package graph

// Priority indicates how important an agent's task is relative to others.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Node is one agent in the dependency graph. Nodes are built once per
// planning run and not mutated afterward.
type Node struct {
	ID               string   `yaml:"agent_id" json:"agent_id"`
	Task             string   `yaml:"task" json:"task"`
	DependsOn        []string `yaml:"depends_on" json:"depends_on"`
	Priority         Priority `yaml:"priority" json:"priority"`
	EstimatedMinutes *int     `yaml:"estimated_duration_minutes,omitempty" json:"estimated_duration_minutes,omitempty"`
}

// Minutes wraps a duration estimate for use in a Node.
func Minutes(n int) *int {
	return &n
}

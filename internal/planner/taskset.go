package planner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swamp-dev/agentplan/internal/graph"
)

// DefaultEstimatedMinutes is assumed for tasks without an estimate.
const DefaultEstimatedMinutes = 30

// TaskDefinition is one task in the tasks file. Dependencies reference other
// tasks by description, since agent ids do not exist until planning runs.
type TaskDefinition struct {
	Description      string         `yaml:"description" json:"description"`
	DependsOn        []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Priority         graph.Priority `yaml:"priority,omitempty" json:"priority,omitempty"`
	EstimatedMinutes int            `yaml:"estimated_minutes,omitempty" json:"estimated_minutes,omitempty"`
}

// TaskSet is the tasks file: the set of work items to plan as one batch.
type TaskSet struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Tasks       []*TaskDefinition `yaml:"tasks" json:"tasks"`
}

// LoadTaskSet reads and parses a tasks file, filling in a 30 minute estimate
// for tasks without one. Priorities stay empty here so the planner can apply
// the configured default.
func LoadTaskSet(path string) (*TaskSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tasks file: %w", err)
	}

	var ts TaskSet
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("parsing tasks file: %w", err)
	}

	for _, task := range ts.Tasks {
		if task.Priority != "" && !task.Priority.Valid() {
			return nil, fmt.Errorf("task %q has invalid priority %q", task.Description, task.Priority)
		}
		if task.EstimatedMinutes == 0 {
			task.EstimatedMinutes = DefaultEstimatedMinutes
		}
	}
	return &ts, nil
}

// Save writes the task set to a YAML file.
func (ts *TaskSet) Save(path string) error {
	data, err := yaml.Marshal(ts)
	if err != nil {
		return fmt.Errorf("marshaling tasks: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing tasks file: %w", err)
	}
	return nil
}

// DefaultTaskSet creates a sample task set for initialization.
func DefaultTaskSet(projectName string) *TaskSet {
	return &TaskSet{
		Name:        projectName,
		Description: "Sample plan for a small service",
		Tasks: []*TaskDefinition{
			{
				Description:      "Set up project structure",
				Priority:         graph.PriorityHigh,
				EstimatedMinutes: 15,
			},
			{
				Description:      "Implement core service",
				DependsOn:        []string{"Set up project structure"},
				Priority:         graph.PriorityHigh,
				EstimatedMinutes: 60,
			},
			{
				Description:      "Write API documentation",
				DependsOn:        []string{"Implement core service"},
				EstimatedMinutes: 30,
			},
			{
				Description:      "Add integration tests",
				DependsOn:        []string{"Implement core service"},
				EstimatedMinutes: 45,
			},
		},
	}
}

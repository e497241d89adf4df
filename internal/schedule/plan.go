package schedule

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/swamp-dev/agentplan/internal/graph"
)

// PlanVersion is the schema version written into exported plan documents.
const PlanVersion = "1.0"

// Plan is the durable form of a schedule: the dependency graph plus the
// computed execution waves, written to disk so orchestration can resume
// after a restart without replanning.
type Plan struct {
	Version      string         `yaml:"version" json:"version"`
	PlanID       string         `yaml:"plan_id" json:"plan_id"`
	GeneratedAt  time.Time      `yaml:"generated_at" json:"generated_at"`
	Dependencies []*graph.Node  `yaml:"dependencies" json:"dependencies"`
	Execution    *ExecutionPlan `yaml:"execution_plan" json:"execution_plan"`
}

// ExecutionPlan holds the waves and timing metrics of an exported plan.
type ExecutionPlan struct {
	Levels                 []*Level `yaml:"levels" json:"levels"`
	TotalSequentialMinutes int      `yaml:"total_sequential_minutes" json:"total_sequential_minutes"`
	TotalParallelMinutes   int      `yaml:"total_parallel_minutes" json:"total_parallel_minutes"`
	TimeSavedPercent       float64  `yaml:"time_saved_percent" json:"time_saved_percent"`
}

// ExportPlan builds the durable plan document for the scheduler's graph.
func (s *Scheduler) ExportPlan() (*Plan, error) {
	summary, err := s.Summary()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Version:      PlanVersion,
		PlanID:       uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Dependencies: s.g.Nodes(),
		Execution: &ExecutionPlan{
			Levels:                 summary.Levels,
			TotalSequentialMinutes: summary.TotalSequentialMinutes,
			TotalParallelMinutes:   summary.TotalParallelMinutes,
			TimeSavedPercent:       summary.TimeSavedPercent,
		},
	}, nil
}

// Save writes the plan document as YAML.
func (p *Plan) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// LoadPlan reads a plan document written by Save.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	return &p, nil
}

// Graph rebuilds the dependency graph embedded in the plan document.
func (p *Plan) Graph() (*graph.Graph, error) {
	return graph.New(p.Dependencies)
}

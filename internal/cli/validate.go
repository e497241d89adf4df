package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/graph"
	"github.com/swamp-dev/agentplan/internal/planner"
	"github.com/swamp-dev/agentplan/internal/schedule"
	"github.com/swamp-dev/agentplan/internal/validate"
)

var (
	validateTasksFile string
	validatePlanFile  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a task dependency graph",
	Long: `Validate checks a tasks file, or an exported plan document, for
dependency defects: references to unknown tasks, self-dependencies,
circular dependencies, chains deeper than the configured limit and
disconnected tasks.

All defects are reported in a single pass.

Examples:
  agentplan validate
  agentplan validate --tasks sprint-12.yaml
  agentplan validate --plan plan.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateTasksFile, "tasks", "t", "", "tasks file (default from config)")
	validateCmd.Flags().StringVar(&validatePlanFile, "plan", "", "validate an exported plan document instead of a tasks file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var g *graph.Graph
	if validatePlanFile != "" {
		plan, err := schedule.LoadPlan(validatePlanFile)
		if err != nil {
			return err
		}
		g, err = plan.Graph()
		if err != nil {
			return err
		}
	} else {
		if validateTasksFile != "" {
			cfg.Planning.TasksFile = validateTasksFile
		}
		ts, err := planner.LoadTaskSet(cfg.Planning.TasksFile)
		if err != nil {
			return err
		}
		g, err = tasksGraph(ts)
		if err != nil {
			return err
		}
	}

	v := validate.New(g, cfg.Planning.MaxDepth, cfg.Planning.AllowOrphans)
	ok, verrs := v.Validate()

	stats := v.Stats()
	fmt.Printf("Agents: %d   Dependencies: %d   Roots: %d   Leaves: %d   Max depth: %d   Avg deps: %.1f\n",
		stats.TotalAgents, stats.TotalDependencies, stats.RootAgents, stats.LeafAgents,
		stats.MaxDepth, stats.AvgDependenciesPerAgent)

	if !ok {
		printValidationErrors(verrs)
		return fmt.Errorf("validation failed with %d errors", len(verrs))
	}

	color.New(color.FgGreen).Println("✓ Dependency graph is valid")
	return nil
}

// tasksGraph builds a validation graph straight from a task set, keyed by
// task description. Agent ids do not exist before planning, so this lets
// a tasks file be checked without touching the workspace.
func tasksGraph(ts *planner.TaskSet) (*graph.Graph, error) {
	nodes := make([]*graph.Node, 0, len(ts.Tasks))
	for _, task := range ts.Tasks {
		node := &graph.Node{
			ID:        task.Description,
			Task:      task.Description,
			DependsOn: task.DependsOn,
			Priority:  task.Priority,
		}
		if task.EstimatedMinutes > 0 {
			node.EstimatedMinutes = graph.Minutes(task.EstimatedMinutes)
		}
		nodes = append(nodes, node)
	}
	return graph.New(nodes)
}

func printValidationErrors(verrs []*validate.Error) {
	red := color.New(color.FgRed)
	for _, e := range verrs {
		red.Printf("✗ [%s] %s\n", e.Kind, e.Message)
		if len(e.CyclePath) > 0 {
			fmt.Printf("    cycle: %s\n", strings.Join(e.CyclePath, " -> "))
		}
	}
}

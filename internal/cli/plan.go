package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/planner"
	"github.com/swamp-dev/agentplan/internal/report"
)

var (
	planTasksFile  string
	planOutput     string
	planReportFile string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan agent execution from a tasks file",
	Long: `Plan loads task definitions, assigns a unique agent id to each task,
validates the dependency graph and computes the parallel execution
schedule.

The plan document is written to the configured plan file and one
pending status record is created per agent in the workspace.

Examples:
  agentplan plan
  agentplan plan --tasks sprint-12.yaml
  agentplan plan --report plan.md`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planTasksFile, "tasks", "t", "", "tasks file (default from config)")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "plan document path (default from config)")
	planCmd.Flags().StringVar(&planReportFile, "report", "", "also write a markdown report to this path")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if planTasksFile != "" {
		cfg.Planning.TasksFile = planTasksFile
	}
	if planOutput != "" {
		cfg.Planning.PlanFile = planOutput
	}

	ts, err := planner.LoadTaskSet(cfg.Planning.TasksFile)
	if err != nil {
		return err
	}

	p, err := planner.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.Plan(cmd.Context(), ts)
	if err != nil {
		return err
	}
	if !result.Valid {
		printValidationErrors(result.ValidationErrors)
		return fmt.Errorf("task set failed validation with %d errors", len(result.ValidationErrors))
	}

	if err := result.Plan.Save(cfg.Planning.PlanFile); err != nil {
		return err
	}

	printPlanSummary(result)
	fmt.Printf("\nPlan written to %s\n", cfg.Planning.PlanFile)

	if planReportFile != "" {
		md := report.RenderMarkdown(result.Plan)
		if err := os.WriteFile(planReportFile, []byte(md), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", planReportFile)
	}

	return nil
}

func printPlanSummary(result *planner.Result) {
	fmt.Println()
	agents := newTable([]string{"AGENT", "TASK", "PRIORITY", "EST. MIN"})
	for _, n := range result.Plan.Dependencies {
		est := "-"
		if n.EstimatedMinutes != nil {
			est = strconv.Itoa(*n.EstimatedMinutes)
		}
		agents.addRow([]string{n.ID, truncate(n.Task, 44), string(n.Priority), est})
	}
	agents.render()

	fmt.Println()
	waves := newTable([]string{"WAVE", "AGENTS", "PARALLEL", "EST. MIN"})
	for _, lvl := range result.Summary.Levels {
		est := "-"
		if lvl.EstimatedMinutes != nil {
			est = strconv.Itoa(*lvl.EstimatedMinutes)
		}
		parallel := "no"
		if lvl.Parallelizable {
			parallel = "yes"
		}
		waves.addRow([]string{strconv.Itoa(lvl.Level), strings.Join(lvl.Agents, ", "), parallel, est})
	}
	waves.render()

	sum := result.Summary
	fmt.Printf("\nSequential: %d min   Parallel: %d min   Saved: %.1f%%   Max parallelism: %d\n",
		sum.TotalSequentialMinutes, sum.TotalParallelMinutes, sum.TimeSavedPercent, sum.MaxParallelism)
}

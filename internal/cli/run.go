package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/planner"
)

var (
	runTasksFile string
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Plan and execute agents wave by wave",
	Long: `Run plans the task set and then executes the schedule: each wave of
agents runs concurrently, and an agent only starts once everything it
depends on has completed. Status records in the workspace move through
pending, in-progress and completed as agents advance.

With --dry-run the schedule is printed without creating any status
records or touching the workspace.

Examples:
  agentplan run
  agentplan run --tasks sprint-12.yaml
  agentplan run --dry-run`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runTasksFile, "tasks", "t", "", "tasks file (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the schedule without creating status records")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runTasksFile != "" {
		cfg.Planning.TasksFile = runTasksFile
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt signal, stopping execution...")
		cancel()
	}()

	if runDryRun {
		result, err := p.Preview(ctx, ts)
		if err != nil {
			return err
		}
		if !result.Valid {
			printValidationErrors(result.ValidationErrors)
			return fmt.Errorf("task set failed validation with %d errors", len(result.ValidationErrors))
		}

		printPlanSummary(result)
		fmt.Println("\nDry run: no status records were created.")
		return nil
	}

	result, err := p.Plan(ctx, ts)
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

	exec, err := p.SimulateExecution(ctx, result.Plan)
	if err != nil {
		return err
	}

	if err := p.RecordExecution(result.RunID, exec); err != nil {
		logger.Warn("recording execution outcome failed", "error", err)
	}

	fmt.Printf("\nExecuted %d agents across %d waves in %.2fs\n",
		exec.AgentsCompleted, exec.Waves, exec.ElapsedSeconds)

	counts, err := p.StatusSummary()
	if err != nil {
		return err
	}
	printStatusCounts(counts)

	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/history"
)

var (
	historyLimit int
	historyStats bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past planning runs",
	Long: `History lists planning runs recorded in the history database, newest
first, including whether each run was executed and how it performed.
With a run id it prints that run's schedule in full.

Examples:
  agentplan history
  agentplan history --limit 5
  agentplan history --stats
  agentplan history 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print aggregate statistics instead of a run list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled in the configuration")
	}

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer hist.Close()

	if len(args) == 1 {
		return printRunDetail(hist, args[0])
	}

	if historyStats {
		stats, err := hist.AggregateStats()
		if err != nil {
			return err
		}
		fmt.Printf("Runs: %d   Executed: %d   Agents planned: %d\n",
			stats.TotalRuns, stats.ExecutedRuns, stats.TotalAgents)
		fmt.Printf("Time saved: %.1f%% average, %.1f%% best\n",
			stats.AvgTimeSaved, stats.BestTimeSaved)
		return nil
	}

	runs, err := hist.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No planning runs recorded yet.")
		return nil
	}

	tbl := newTable([]string{"RUN", "WHEN", "PROJECT", "AGENTS", "WAVES", "SAVED", "EXECUTED"})
	for _, r := range runs {
		executed := "-"
		if r.Executed {
			executed = fmt.Sprintf("%d agents in %.1fs", r.AgentsCompleted, r.ElapsedSeconds)
		}
		tbl.addRow([]string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Project,
			strconv.Itoa(r.TotalAgents),
			strconv.Itoa(r.TotalWaves),
			fmt.Sprintf("%.1f%%", r.TimeSavedPercent),
			executed,
		})
	}
	tbl.render()

	return nil
}

func printRunDetail(hist *history.Store, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", arg)
	}

	run, err := hist.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %d: %s (plan %s)\n", run.ID, run.Project, run.PlanID)
	fmt.Printf("  Planned:    %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if run.TasksFile != "" {
		fmt.Printf("  Tasks file: %s\n", run.TasksFile)
	}
	fmt.Printf("  Schedule:   %d agents in %d waves, %d min sequential vs %d min parallel (%.1f%% saved)\n",
		run.TotalAgents, run.TotalWaves, run.SequentialMinutes, run.ParallelMinutes, run.TimeSavedPercent)
	if run.Executed {
		fmt.Printf("  Executed:   %d agents completed in %.1fs\n", run.AgentsCompleted, run.ElapsedSeconds)
	}

	agents, err := hist.RunAgents(id)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		return nil
	}

	fmt.Println()
	tbl := newTable([]string{"WAVE", "AGENT", "PRIORITY", "EST. MIN", "TASK"})
	for _, a := range agents {
		est := "-"
		if a.EstimatedMinutes != nil {
			est = strconv.Itoa(*a.EstimatedMinutes)
		}
		tbl.addRow([]string{strconv.Itoa(a.Wave), a.AgentID, a.Priority, est, truncate(a.Task, 40)})
	}
	tbl.render()

	return nil
}

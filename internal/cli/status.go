package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/status"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [agent-id]",
	Short: "Show agent status",
	Long: `Status shows the state of agents in the workspace.

Without arguments it renders a board of every agent with a completion
bar. With an agent id it prints that agent's full status record.

Examples:
  agentplan status
  agentplan status aaa111
  agentplan status --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := status.NewStore(cfg.Workspace.Dir)

	if len(args) == 1 {
		if statusJSON {
			return printAgentJSON(store, args[0])
		}
		return printAgentDetail(store, args[0])
	}

	if statusJSON {
		return printBoardJSON(store)
	}
	return printStatusBoard(store)
}

func printAgentDetail(store *status.Store, agentID string) error {
	rec, err := store.Read(agentID)
	if err != nil {
		return err
	}

	statusColor(rec.Status).Printf("%s Agent %s\n", statusIcon(rec.Status), rec.AgentID)
	fmt.Printf("  Task:       %s\n", rec.TaskDescription)
	fmt.Printf("  Status:     %s\n", rec.Status)
	fmt.Printf("  Parent:     %s (depth %d)\n", rec.ParentAgent, rec.Depth)
	fmt.Printf("  Created:    %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Updated:    %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	if rec.StartedAt != nil {
		fmt.Printf("  Started:    %s\n", rec.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if rec.CompletedAt != nil {
		fmt.Printf("  Completed:  %s\n", rec.CompletedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if rec.Summary != "" {
		fmt.Printf("  Summary:    %s\n", rec.Summary)
	}
	if len(rec.Artifacts) > 0 {
		fmt.Printf("  Artifacts:  %s\n", strings.Join(rec.Artifacts, ", "))
	}
	for _, e := range rec.Errors {
		color.New(color.FgRed).Printf("  Error:      [%s] %s\n", e.Type, e.Message)
	}
	if len(rec.Metadata) > 0 {
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("  Metadata:")
		for _, k := range keys {
			fmt.Printf("    %s: %v\n", k, rec.Metadata[k])
		}
	}

	return nil
}

func printAgentJSON(store *status.Store, agentID string) error {
	rec, err := store.Read(agentID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status record: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func printStatusBoard(store *status.Store) error {
	ids, err := store.List("")
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No agents in workspace. Run 'agentplan plan' first.")
		return nil
	}

	counts := make(map[status.Status]int)
	total := 0

	board := newTable([]string{"AGENT", "STATUS", "TASK"})
	for _, id := range ids {
		rec, err := store.Read(id)
		if err != nil {
			logger.Warn("skipping unreadable status record", "agent", id, "error", err)
			continue
		}
		counts[rec.Status]++
		total++
		board.addRow([]string{
			rec.AgentID,
			statusIcon(rec.Status) + " " + string(rec.Status),
			truncate(rec.TaskDescription, 48),
		})
	}
	board.render()

	if total == 0 {
		return nil
	}

	percent := float64(counts[status.StatusCompleted]) / float64(total) * 100
	fmt.Printf("\n%s %5.1f%% complete\n", renderProgressBar(percent, 40), percent)
	printStatusCounts(counts)

	return nil
}

func printBoardJSON(store *status.Store) error {
	ids, err := store.List("")
	if err != nil {
		return err
	}

	counts := make(map[status.Status]int)
	total := 0
	for _, id := range ids {
		rec, err := store.Read(id)
		if err != nil {
			continue
		}
		counts[rec.Status]++
		total++
	}

	percent := 0.0
	if total > 0 {
		percent = float64(counts[status.StatusCompleted]) / float64(total) * 100
	}

	fmt.Printf(`{
  "total": %d,
  "completed": %d,
  "in_progress": %d,
  "pending": %d,
  "failed": %d,
  "percent_complete": %.1f
}
`, total, counts[status.StatusCompleted], counts[status.StatusInProgress],
		counts[status.StatusPending], counts[status.StatusFailed], percent)

	return nil
}

func printStatusCounts(counts map[status.Status]int) {
	fmt.Printf("  ✓ completed: %d   ▶ in-progress: %d   ○ pending: %d   ✗ failed: %d\n",
		counts[status.StatusCompleted], counts[status.StatusInProgress],
		counts[status.StatusPending], counts[status.StatusFailed])
}

func statusColor(s status.Status) *color.Color {
	switch s {
	case status.StatusCompleted:
		return color.New(color.FgGreen)
	case status.StatusInProgress:
		return color.New(color.FgYellow)
	case status.StatusFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

func statusIcon(s status.Status) string {
	switch s {
	case status.StatusCompleted:
		return "✓"
	case status.StatusInProgress:
		return "▶"
	case status.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

func renderProgressBar(percent float64, width int) string {
	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return "[" + bar + "]"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

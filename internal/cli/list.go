package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/status"
)

var listStatusFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent status records",
	Long: `List prints one row per agent in the workspace, newest metadata
included, optionally filtered by status.

Examples:
  agentplan list
  agentplan list --status failed
  agentplan list --status in-progress`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listStatusFilter, "status", "s", "", "filter by status (pending, in-progress, completed, failed)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var filter status.Status
	if listStatusFilter != "" {
		filter = status.Status(listStatusFilter)
		if !filter.Valid() {
			return fmt.Errorf("invalid status filter %q (want pending, in-progress, completed or failed)", listStatusFilter)
		}
	}

	store := status.NewStore(cfg.Workspace.Dir)
	ids, err := store.List(filter)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No matching agents.")
		return nil
	}

	tbl := newTable([]string{"AGENT", "STATUS", "DEPTH", "PARENT", "UPDATED", "TASK"})
	for _, id := range ids {
		rec, err := store.Read(id)
		if err != nil {
			logger.Warn("skipping unreadable status record", "agent", id, "error", err)
			continue
		}
		tbl.addRow([]string{
			rec.AgentID,
			string(rec.Status),
			strconv.Itoa(rec.Depth),
			rec.ParentAgent,
			rec.UpdatedAt.Format("2006-01-02 15:04"),
			truncate(rec.TaskDescription, 40),
		})
	}
	tbl.render()

	return nil
}

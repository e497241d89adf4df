package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/report"
	"github.com/swamp-dev/agentplan/internal/schedule"
)

var (
	reportPlanFile string
	reportOutput   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a plan document as markdown",
	Long: `Report reads an exported plan document and renders it as a markdown
summary: the agent table, the wave-by-wave execution order and the
timing comparison.

Examples:
  agentplan report
  agentplan report --plan plan.yaml --output plan.md`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportPlanFile, "plan", "", "plan document (default from config)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to a file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := reportPlanFile
	if path == "" {
		path = cfg.Planning.PlanFile
	}

	plan, err := schedule.LoadPlan(path)
	if err != nil {
		return err
	}

	md := report.RenderMarkdown(plan)

	if reportOutput == "" {
		fmt.Print(md)
		return nil
	}

	if err := os.WriteFile(reportOutput, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Printf("Report written to %s\n", reportOutput)
	return nil
}

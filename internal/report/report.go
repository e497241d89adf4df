// Package report renders exported plan documents as human-readable markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/swamp-dev/agentplan/internal/schedule"
)

// RenderMarkdown formats a plan document as a markdown report: the agent
// table, the wave-by-wave execution order, and the timing comparison.
func RenderMarkdown(p *schedule.Plan) string {
	var sb strings.Builder

	sb.WriteString("# Execution Plan\n\n")
	sb.WriteString(fmt.Sprintf("Plan %s, generated %s.\n\n",
		p.PlanID, p.GeneratedAt.Format("2006-01-02 15:04 MST")))

	tasks := make(map[string]string, len(p.Dependencies))

	sb.WriteString("## Agents\n\n")
	sb.WriteString("| Agent | Task | Priority | Depends On | Est. Minutes |\n")
	sb.WriteString("|-------|------|----------|------------|--------------|\n")
	for _, n := range p.Dependencies {
		tasks[n.ID] = n.Task

		deps := "-"
		if len(n.DependsOn) > 0 {
			deps = strings.Join(n.DependsOn, ", ")
		}
		est := "-"
		if n.EstimatedMinutes != nil {
			est = fmt.Sprintf("%d", *n.EstimatedMinutes)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			n.ID, n.Task, n.Priority, deps, est))
	}
	sb.WriteString("\n")

	if p.Execution == nil {
		return sb.String()
	}

	sb.WriteString("## Execution Order\n\n")
	for _, lvl := range p.Execution.Levels {
		mode := "sequential"
		if lvl.Parallelizable {
			mode = "parallel"
		}
		sb.WriteString(fmt.Sprintf("### Wave %d (%s", lvl.Level, mode))
		if lvl.EstimatedMinutes != nil {
			sb.WriteString(fmt.Sprintf(", ~%d min", *lvl.EstimatedMinutes))
		}
		sb.WriteString(")\n\n")

		for _, id := range lvl.Agents {
			if task := tasks[id]; task != "" {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", id, task))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", id))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Timing\n\n")
	sb.WriteString(fmt.Sprintf("- Sequential: %d minutes\n", p.Execution.TotalSequentialMinutes))
	sb.WriteString(fmt.Sprintf("- Parallel: %d minutes\n", p.Execution.TotalParallelMinutes))
	sb.WriteString(fmt.Sprintf("- Time saved: %.1f%%\n", p.Execution.TimeSavedPercent))

	return sb.String()
}

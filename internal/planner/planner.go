// Package planner coordinates a full planning run: task definitions in,
// validated execution plan and per-agent status records out.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swamp-dev/agentplan/internal/config"
	"github.com/swamp-dev/agentplan/internal/graph"
	"github.com/swamp-dev/agentplan/internal/history"
	"github.com/swamp-dev/agentplan/internal/idgen"
	"github.com/swamp-dev/agentplan/internal/schedule"
	"github.com/swamp-dev/agentplan/internal/status"
	"github.com/swamp-dev/agentplan/internal/validate"
)

// Agent is one planned agent: a generated id bound to its task, with
// dependencies resolved from descriptions to agent ids.
type Agent struct {
	ID        string
	Task      *TaskDefinition
	DependsOn []string
}

// Result is the outcome of a planning run. When validation fails, Valid is
// false and ValidationErrors carries every problem found; the scheduling
// fields stay nil. RunID is the history row for this run, zero when the run
// was not recorded.
type Result struct {
	Valid            bool
	Agents           []*Agent
	ValidationErrors []*validate.Error
	Summary          *schedule.Summary
	Plan             *schedule.Plan
	Metrics          *Metrics
	RunID            int64
}

// Metrics summarizes a planning run for logging and reports.
type Metrics struct {
	PlanningSeconds   float64
	TotalAgents       int
	TotalDependencies int
	MaxDepth          int
	SequentialMinutes int
	ParallelMinutes   int
	TimeSavedPercent  float64
	MaxParallelism    int
}

// ExecutionResult summarizes a simulated execution run.
type ExecutionResult struct {
	Waves           int
	AgentsCompleted int
	ElapsedSeconds  float64
}

// Planner wires id generation, validation, scheduling and status persistence
// into the planning pipeline.
type Planner struct {
	cfg    *config.Config
	gen    *idgen.Generator
	store  *status.Store
	hist   *history.Store
	logger *slog.Logger
}

// New creates a planner rooted at the configured workspace. Agent ids found
// in the workspace from earlier runs are registered so new ids never collide
// with them.
func New(cfg *config.Config, logger *slog.Logger) (*Planner, error) {
	ws := cfg.Workspace.Dir
	if err := os.MkdirAll(ws, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	gen := idgen.New()
	known, err := gen.ScanWorkspace(ws)
	if err != nil {
		return nil, err
	}
	if known > 0 {
		logger.Debug("registered existing agents", "count", known)
	}

	var hist *history.Store
	if cfg.History.Enabled {
		if dir := filepath.Dir(cfg.History.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating history directory: %w", err)
			}
		}
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("opening run history: %w", err)
		}
	}

	return &Planner{
		cfg:    cfg,
		gen:    gen,
		store:  status.NewStore(ws),
		hist:   hist,
		logger: logger,
	}, nil
}

// Close releases resources held by the planner.
func (p *Planner) Close() error {
	if p.hist != nil {
		return p.hist.Close()
	}
	return nil
}

// Plan runs the full pipeline for a task set and creates one pending status
// record per planned agent.
func (p *Planner) Plan(ctx context.Context, ts *TaskSet) (*Result, error) {
	return p.plan(ctx, ts, true)
}

// Preview runs the same pipeline without writing any status records.
func (p *Planner) Preview(ctx context.Context, ts *TaskSet) (*Result, error) {
	return p.plan(ctx, ts, false)
}

func (p *Planner) plan(ctx context.Context, ts *TaskSet, persist bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	agents, g, err := p.buildGraph(ts)
	if err != nil {
		return nil, err
	}

	v := validate.New(g, p.cfg.Planning.MaxDepth, p.cfg.Planning.AllowOrphans)
	ok, verrs := v.Validate()
	if !ok {
		p.logger.Warn("task set failed validation", "tasks", len(ts.Tasks), "errors", len(verrs))
		return &Result{Agents: agents, ValidationErrors: verrs}, nil
	}

	sched, err := schedule.New(g)
	if err != nil {
		return nil, err
	}
	if cycle := sched.DetectCycles(); cycle != nil {
		return nil, fmt.Errorf("cannot schedule: circular dependency %s", strings.Join(cycle, " -> "))
	}

	summary, err := sched.Summary()
	if err != nil {
		return nil, err
	}
	plan, err := sched.ExportPlan()
	if err != nil {
		return nil, err
	}

	if persist {
		if err := p.createRecords(ctx, agents); err != nil {
			return nil, err
		}
	}

	var runID int64
	if persist && p.hist != nil {
		runID, err = p.hist.RecordRun(p.cfg.Project.Name, p.cfg.Planning.TasksFile, plan, summary)
		if err != nil {
			p.logger.Warn("recording run history failed", "error", err)
			runID = 0
		}
	}

	stats := v.Stats()
	p.logger.Info("planning complete",
		"agents", stats.TotalAgents,
		"levels", summary.TotalLevels,
		"time_saved_percent", summary.TimeSavedPercent,
	)

	return &Result{
		Valid:   true,
		Agents:  agents,
		Summary: summary,
		Plan:    plan,
		RunID:   runID,
		Metrics: &Metrics{
			PlanningSeconds:   time.Since(start).Seconds(),
			TotalAgents:       stats.TotalAgents,
			TotalDependencies: stats.TotalDependencies,
			MaxDepth:          stats.MaxDepth,
			SequentialMinutes: summary.TotalSequentialMinutes,
			ParallelMinutes:   summary.TotalParallelMinutes,
			TimeSavedPercent:  summary.TimeSavedPercent,
			MaxParallelism:    summary.MaxParallelism,
		},
	}, nil
}

// buildGraph assigns an id to every task and resolves description-keyed
// dependencies into id-keyed graph nodes. Duplicate and unknown descriptions
// are hard errors: the task set itself is malformed, not the graph.
func (p *Planner) buildGraph(ts *TaskSet) ([]*Agent, *graph.Graph, error) {
	if len(ts.Tasks) == 0 {
		return nil, nil, fmt.Errorf("task set %q has no tasks", ts.Name)
	}

	byDescription := make(map[string]string, len(ts.Tasks))
	agents := make([]*Agent, 0, len(ts.Tasks))
	for _, task := range ts.Tasks {
		if task.Description == "" {
			return nil, nil, fmt.Errorf("task set %q contains a task without a description", ts.Name)
		}
		if _, dup := byDescription[task.Description]; dup {
			return nil, nil, fmt.Errorf("duplicate task description %q", task.Description)
		}
		id, err := p.gen.Generate()
		if err != nil {
			return nil, nil, err
		}
		byDescription[task.Description] = id
		agents = append(agents, &Agent{ID: id, Task: task})
	}

	nodes := make([]*graph.Node, 0, len(agents))
	for _, a := range agents {
		var deps []string
		for _, desc := range a.Task.DependsOn {
			depID, ok := byDescription[desc]
			if !ok {
				return nil, nil, fmt.Errorf("task %q depends on unknown task %q", a.Task.Description, desc)
			}
			deps = append(deps, depID)
		}
		a.DependsOn = deps

		priority := a.Task.Priority
		if priority == "" {
			priority = graph.Priority(p.cfg.Planning.DefaultPriority)
		}
		node := &graph.Node{
			ID:        a.ID,
			Task:      a.Task.Description,
			DependsOn: deps,
			Priority:  priority,
		}
		if a.Task.EstimatedMinutes > 0 {
			node.EstimatedMinutes = graph.Minutes(a.Task.EstimatedMinutes)
		}
		nodes = append(nodes, node)
	}

	g, err := graph.New(nodes)
	if err != nil {
		return nil, nil, err
	}
	return agents, g, nil
}

// createRecords writes the initial pending record for every planned agent.
func (p *Planner) createRecords(ctx context.Context, agents []*Agent) error {
	for _, a := range agents {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		meta := map[string]interface{}{
			"depends_on":        a.DependsOn,
			"estimated_minutes": a.Task.EstimatedMinutes,
			"priority":          string(a.Task.Priority),
		}
		if _, err := p.store.Create(a.ID, a.Task.Description, "master", 1, meta); err != nil {
			return fmt.Errorf("creating status for agent %s: %w", a.ID, err)
		}
	}
	return nil
}

// SimulateExecution walks the plan's waves in order, running every agent in
// a wave concurrently. Each goroutine touches only its own status document,
// so waves need no locking beyond the errgroup join.
func (p *Planner) SimulateExecution(ctx context.Context, plan *schedule.Plan) (*ExecutionResult, error) {
	if plan == nil || plan.Execution == nil {
		return nil, fmt.Errorf("plan has no execution levels")
	}

	start := time.Now()
	completed := 0
	for _, level := range plan.Execution.Levels {
		p.logger.Info("executing wave", "wave", level.Level, "agents", len(level.Agents))

		eg, gctx := errgroup.WithContext(ctx)
		for _, id := range level.Agents {
			id := id // per-iteration copy; required while go.mod targets go < 1.22
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, err := p.store.Update(id, status.StatusInProgress,
					fmt.Sprintf("Executing in wave %d", level.Level), nil, nil); err != nil {
					return err
				}
				_, err := p.store.Update(id, status.StatusCompleted,
					"Completed successfully",
					[]string{fmt.Sprintf("output_%s.txt", id)}, nil)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, fmt.Errorf("wave %d: %w", level.Level, err)
		}
		completed += len(level.Agents)
	}

	return &ExecutionResult{
		Waves:           len(plan.Execution.Levels),
		AgentsCompleted: completed,
		ElapsedSeconds:  time.Since(start).Seconds(),
	}, nil
}

// RecordExecution marks a recorded run as executed in the history store.
// It is a no-op when history is disabled or the run was never recorded.
func (p *Planner) RecordExecution(runID int64, exec *ExecutionResult) error {
	if p.hist == nil || runID == 0 {
		return nil
	}
	return p.hist.MarkExecuted(runID, exec.AgentsCompleted, exec.ElapsedSeconds)
}

// StatusSummary counts status documents per lifecycle state.
func (p *Planner) StatusSummary() (map[status.Status]int, error) {
	ids, err := p.store.List("")
	if err != nil {
		return nil, err
	}

	counts := make(map[status.Status]int)
	for _, id := range ids {
		rec, err := p.store.Read(id)
		if err != nil {
			continue
		}
		counts[rec.Status]++
	}
	return counts, nil
}

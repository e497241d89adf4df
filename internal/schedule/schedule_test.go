package schedule

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/swamp-dev/agentplan/internal/graph"
)

func mustGraph(t *testing.T, nodes ...*graph.Node) *graph.Graph {
	t.Helper()
	g, err := graph.New(nodes)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func mustScheduler(t *testing.T, nodes ...*graph.Node) *Scheduler {
	t.Helper()
	s, err := New(mustGraph(t, nodes...))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_MissingDependency(t *testing.T) {
	g := mustGraph(t, &graph.Node{ID: "a", DependsOn: []string{"ghost"}})

	if _, err := New(g); err == nil {
		t.Error("expected error for missing dependency reference")
	}
}

func TestTopologicalSort(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a"},
		&graph.Node{ID: "b", DependsOn: []string{"a"}},
		&graph.Node{ID: "c", DependsOn: []string{"a"}},
		&graph.Node{ID: "d", DependsOn: []string{"b", "c"}},
		&graph.Node{ID: "e", DependsOn: []string{"b", "c"}},
		&graph.Node{ID: "f", DependsOn: []string{"d", "e"}},
	)

	levels, err := s.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}

	want := [][]string{{"a"}, {"b", "c"}, {"d", "e"}, {"f"}}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(levels))
	}
	for i, lvl := range levels {
		if lvl.Level != i {
			t.Errorf("level %d has index %d", i, lvl.Level)
		}
		if !reflect.DeepEqual(lvl.Agents, want[i]) {
			t.Errorf("level %d: expected agents %v, got %v", i, want[i], lvl.Agents)
		}
		if wantPar := len(want[i]) > 1; lvl.Parallelizable != wantPar {
			t.Errorf("level %d: expected parallelizable=%v", i, wantPar)
		}
	}
}

func TestTopologicalSort_Empty(t *testing.T) {
	s := mustScheduler(t)

	levels, err := s.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("expected no levels for empty graph, got %d", len(levels))
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", DependsOn: []string{"b"}},
		&graph.Node{ID: "b", DependsOn: []string{"a"}},
	)

	_, err := s.TopologicalSort()
	if err == nil {
		t.Fatal("expected error for cyclic graph")
	}
	if !strings.Contains(err.Error(), "circular") {
		t.Errorf("expected circular dependency error, got %v", err)
	}
}

func TestTopologicalSort_DuplicateDeps(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a"},
		&graph.Node{ID: "b", DependsOn: []string{"a", "a"}},
	)

	levels, err := s.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
}

func TestDetectCycles(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", DependsOn: []string{"b"}},
		&graph.Node{ID: "b", DependsOn: []string{"a"}},
	)

	cycle := s.DetectCycles()
	if cycle == nil {
		t.Fatal("expected a cycle")
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("expected closed cycle path, got %v", cycle)
	}

	acyclic := mustScheduler(t, &graph.Node{ID: "a"})
	if got := acyclic.DetectCycles(); got != nil {
		t.Errorf("expected nil for acyclic graph, got %v", got)
	}
}

func TestLevelDuration(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", EstimatedMinutes: graph.Minutes(10)},
		&graph.Node{ID: "b", DependsOn: []string{"a"}, EstimatedMinutes: graph.Minutes(30)},
		&graph.Node{ID: "c", DependsOn: []string{"a"}, EstimatedMinutes: graph.Minutes(20)},
	)

	levels, err := s.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}

	// Single agent: its own estimate.
	if got := levels[0].EstimatedMinutes; got == nil || *got != 10 {
		t.Errorf("expected level 0 duration 10, got %v", got)
	}
	// Parallel agents: the slowest one bounds the wave.
	if got := levels[1].EstimatedMinutes; got == nil || *got != 30 {
		t.Errorf("expected level 1 duration 30, got %v", got)
	}
}

func TestLevelDuration_NoEstimates(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a"},
		&graph.Node{ID: "b"},
	)

	levels, err := s.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if levels[0].EstimatedMinutes != nil {
		t.Errorf("expected nil duration without estimates, got %d", *levels[0].EstimatedMinutes)
	}
}

func TestSummary(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", EstimatedMinutes: graph.Minutes(10)},
		&graph.Node{ID: "b", DependsOn: []string{"a"}, EstimatedMinutes: graph.Minutes(30)},
		&graph.Node{ID: "c", DependsOn: []string{"a"}, EstimatedMinutes: graph.Minutes(20)},
	)

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if sum.TotalAgents != 3 {
		t.Errorf("expected 3 agents, got %d", sum.TotalAgents)
	}
	if sum.TotalLevels != 2 {
		t.Errorf("expected 2 levels, got %d", sum.TotalLevels)
	}
	if sum.TotalSequentialMinutes != 60 {
		t.Errorf("expected 60 sequential minutes, got %d", sum.TotalSequentialMinutes)
	}
	if sum.TotalParallelMinutes != 40 {
		t.Errorf("expected 40 parallel minutes, got %d", sum.TotalParallelMinutes)
	}
	if sum.TimeSavedPercent != 33.3 {
		t.Errorf("expected 33.3%% saved, got %g", sum.TimeSavedPercent)
	}
	if sum.MaxParallelism != 2 {
		t.Errorf("expected max parallelism 2, got %d", sum.MaxParallelism)
	}
}

func TestSummary_NoEstimates(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a"},
		&graph.Node{ID: "b", DependsOn: []string{"a"}},
	)

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalSequentialMinutes != 0 || sum.TotalParallelMinutes != 0 {
		t.Errorf("expected zero timing without estimates, got %d/%d",
			sum.TotalSequentialMinutes, sum.TotalParallelMinutes)
	}
	if sum.TimeSavedPercent != 0 {
		t.Errorf("expected 0%% saved, got %g", sum.TimeSavedPercent)
	}
}

func TestExportPlan(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", Task: "Build API", EstimatedMinutes: graph.Minutes(10)},
		&graph.Node{ID: "b", Task: "Build UI", DependsOn: []string{"a"}, EstimatedMinutes: graph.Minutes(20)},
	)

	plan, err := s.ExportPlan()
	if err != nil {
		t.Fatalf("ExportPlan: %v", err)
	}

	if plan.Version != PlanVersion {
		t.Errorf("expected version %s, got %s", PlanVersion, plan.Version)
	}
	if plan.PlanID == "" {
		t.Error("expected a plan id")
	}
	if plan.GeneratedAt.IsZero() {
		t.Error("expected generated_at to be set")
	}
	if len(plan.Dependencies) != 2 {
		t.Errorf("expected 2 dependency entries, got %d", len(plan.Dependencies))
	}
	if plan.Execution == nil || len(plan.Execution.Levels) != 2 {
		t.Fatalf("expected 2 execution levels, got %+v", plan.Execution)
	}
	if plan.Execution.TotalSequentialMinutes != 30 {
		t.Errorf("expected 30 sequential minutes, got %d", plan.Execution.TotalSequentialMinutes)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a", Task: "Build API", Priority: graph.PriorityHigh, EstimatedMinutes: graph.Minutes(10)},
		&graph.Node{ID: "b", Task: "Build UI", DependsOn: []string{"a"}},
	)
	plan, err := s.ExportPlan()
	if err != nil {
		t.Fatalf("ExportPlan: %v", err)
	}

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := plan.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}

	if loaded.Version != plan.Version || loaded.PlanID != plan.PlanID {
		t.Errorf("identity fields changed: %s/%s vs %s/%s",
			loaded.Version, loaded.PlanID, plan.Version, plan.PlanID)
	}
	if !loaded.GeneratedAt.Equal(plan.GeneratedAt) {
		t.Errorf("generated_at changed: %v vs %v", loaded.GeneratedAt, plan.GeneratedAt)
	}
	if len(loaded.Dependencies) != len(plan.Dependencies) {
		t.Fatalf("expected %d dependencies, got %d", len(plan.Dependencies), len(loaded.Dependencies))
	}
	for i, want := range plan.Dependencies {
		got := loaded.Dependencies[i]
		if got.ID != want.ID || got.Task != want.Task || got.Priority != want.Priority {
			t.Errorf("dependency %d changed: %+v vs %+v", i, got, want)
		}
		if strings.Join(got.DependsOn, ",") != strings.Join(want.DependsOn, ",") {
			t.Errorf("dependency %d depends_on changed: %v vs %v", i, got.DependsOn, want.DependsOn)
		}
	}
	if !reflect.DeepEqual(loaded.Execution, plan.Execution) {
		t.Errorf("execution plan changed: %+v vs %+v", loaded.Execution, plan.Execution)
	}
}

func TestLoadPlan_Missing(t *testing.T) {
	if _, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing plan file")
	}
}

func TestPlan_Graph(t *testing.T) {
	s := mustScheduler(t,
		&graph.Node{ID: "a"},
		&graph.Node{ID: "b", DependsOn: []string{"a"}},
	)
	plan, err := s.ExportPlan()
	if err != nil {
		t.Fatalf("ExportPlan: %v", err)
	}

	g, err := plan.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if g.Len() != 2 || !g.Has("a") || !g.Has("b") {
		t.Errorf("rebuilt graph is incomplete: %v", g.IDs())
	}
}

// Package history provides SQLite-based persistence for past planning runs.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/swamp-dev/agentplan/internal/schedule"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store is the SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies the schema if not already at the current version.
func (s *Store) migrate() error {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		// Fresh database, apply full schema.
		if _, err := s.db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	}
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version < currentSchemaVersion {
		return fmt.Errorf("schema version %d is older than %d, migration not yet implemented", version, currentSchemaVersion)
	}

	return nil
}

// Run is one recorded planning run.
type Run struct {
	ID                int64     `json:"id"`
	PlanID            string    `json:"plan_id"`
	Project           string    `json:"project"`
	TasksFile         string    `json:"tasks_file,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	TotalAgents       int       `json:"total_agents"`
	TotalWaves        int       `json:"total_waves"`
	SequentialMinutes int       `json:"sequential_minutes"`
	ParallelMinutes   int       `json:"parallel_minutes"`
	TimeSavedPercent  float64   `json:"time_saved_percent"`
	MaxParallelism    int       `json:"max_parallelism"`
	Executed          bool      `json:"executed"`
	AgentsCompleted   int       `json:"agents_completed"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
}

// RunAgent is one agent attached to a recorded run.
type RunAgent struct {
	RunID            int64  `json:"run_id"`
	AgentID          string `json:"agent_id"`
	Task             string `json:"task"`
	Wave             int    `json:"wave"`
	Priority         string `json:"priority"`
	EstimatedMinutes *int   `json:"estimated_minutes,omitempty"`
}

// RecordRun stores a plan and its schedule summary, returning the run id.
func (s *Store) RecordRun(project, tasksFile string, plan *schedule.Plan, summary *schedule.Summary) (int64, error) {
	waves := make(map[string]int)
	for _, lvl := range summary.Levels {
		for _, id := range lvl.Agents {
			waves[id] = lvl.Level
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO runs (plan_id, project, tasks_file, total_agents, total_waves,
		 sequential_minutes, parallel_minutes, time_saved_percent, max_parallelism)
		 VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)`,
		plan.PlanID, project, tasksFile, summary.TotalAgents, summary.TotalLevels,
		summary.TotalSequentialMinutes, summary.TotalParallelMinutes,
		summary.TimeSavedPercent, summary.MaxParallelism,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, n := range plan.Dependencies {
		if _, err := tx.Exec(
			`INSERT INTO run_agents (run_id, agent_id, task, wave, priority, estimated_minutes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, n.ID, n.Task, waves[n.ID], string(n.Priority), n.EstimatedMinutes,
		); err != nil {
			return 0, fmt.Errorf("recording agent %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// MarkExecuted records the execution outcome for a run.
func (s *Store) MarkExecuted(runID int64, agentsCompleted int, elapsedSeconds float64) error {
	_, err := s.db.Exec(
		"UPDATE runs SET executed = 1, agents_completed = ?, elapsed_seconds = ? WHERE id = ?",
		agentsCompleted, elapsedSeconds, runID,
	)
	return err
}

// GetRun returns a run by id.
func (s *Store) GetRun(id int64) (*Run, error) {
	r := &Run{}
	err := s.db.QueryRow(
		`SELECT id, plan_id, project, COALESCE(tasks_file, ''), created_at, total_agents,
		 total_waves, sequential_minutes, parallel_minutes, time_saved_percent,
		 max_parallelism, executed, agents_completed, elapsed_seconds
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.PlanID, &r.Project, &r.TasksFile, &r.CreatedAt, &r.TotalAgents,
		&r.TotalWaves, &r.SequentialMinutes, &r.ParallelMinutes, &r.TimeSavedPercent,
		&r.MaxParallelism, &r.Executed, &r.AgentsCompleted, &r.ElapsedSeconds)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	return r, err
}

// LatestRun returns the most recent run.
func (s *Store) LatestRun() (*Run, error) {
	r := &Run{}
	err := s.db.QueryRow(
		`SELECT id, plan_id, project, COALESCE(tasks_file, ''), created_at, total_agents,
		 total_waves, sequential_minutes, parallel_minutes, time_saved_percent,
		 max_parallelism, executed, agents_completed, elapsed_seconds
		 FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&r.ID, &r.PlanID, &r.Project, &r.TasksFile, &r.CreatedAt, &r.TotalAgents,
		&r.TotalWaves, &r.SequentialMinutes, &r.ParallelMinutes, &r.TimeSavedPercent,
		&r.MaxParallelism, &r.Executed, &r.AgentsCompleted, &r.ElapsedSeconds)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no runs recorded")
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, plan_id, project, COALESCE(tasks_file, ''), created_at, total_agents,
		 total_waves, sequential_minutes, parallel_minutes, time_saved_percent,
		 max_parallelism, executed, agents_completed, elapsed_seconds
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Project, &r.TasksFile, &r.CreatedAt,
			&r.TotalAgents, &r.TotalWaves, &r.SequentialMinutes, &r.ParallelMinutes,
			&r.TimeSavedPercent, &r.MaxParallelism, &r.Executed, &r.AgentsCompleted,
			&r.ElapsedSeconds); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunAgents returns the agents recorded for a run, ordered by wave.
func (s *Store) RunAgents(runID int64) ([]*RunAgent, error) {
	rows, err := s.db.Query(
		`SELECT run_id, agent_id, task, wave, priority, estimated_minutes
		 FROM run_agents WHERE run_id = ? ORDER BY wave ASC, agent_id ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*RunAgent
	for rows.Next() {
		a := &RunAgent{}
		var est sql.NullInt64
		if err := rows.Scan(&a.RunID, &a.AgentID, &a.Task, &a.Wave, &a.Priority, &est); err != nil {
			return nil, err
		}
		if est.Valid {
			m := int(est.Int64)
			a.EstimatedMinutes = &m
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Stats holds aggregate figures across all recorded runs.
type Stats struct {
	TotalRuns     int     `json:"total_runs"`
	ExecutedRuns  int     `json:"executed_runs"`
	TotalAgents   int     `json:"total_agents"`
	AvgTimeSaved  float64 `json:"avg_time_saved_percent"`
	BestTimeSaved float64 `json:"best_time_saved_percent"`
}

// AggregateStats computes aggregate statistics over the whole history.
func (s *Store) AggregateStats() (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(executed), 0), COALESCE(SUM(total_agents), 0),
		       COALESCE(AVG(time_saved_percent), 0), COALESCE(MAX(time_saved_percent), 0)
		FROM runs`,
	).Scan(&st.TotalRuns, &st.ExecutedRuns, &st.TotalAgents, &st.AvgTimeSaved, &st.BestTimeSaved)
	if err != nil {
		return nil, fmt.Errorf("aggregating run history: %w", err)
	}
	return st, nil
}

package status

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StatusFileName is the per-agent status document name.
const StatusFileName = ".agent_status.yaml"

var (
	// ErrNotFound means the agent has no status document.
	ErrNotFound = errors.New("status file not found")
	// ErrEmptyFile means the status document exists but holds no content.
	ErrEmptyFile = errors.New("status file is empty")
)

// requiredFields must all be present in a status document for it to parse.
var requiredFields = []string{
	"agent_id", "status", "task_description", "parent_agent",
	"depth", "created_at", "updated_at",
}

// Store reads and writes agent status documents under a workspace directory.
// Each agent owns `<workspace>/agent-<id>/.agent_status.yaml` exclusively, so
// concurrent agents never contend on a shared file.
type Store struct {
	workspaceDir string
}

// NewStore creates a store rooted at workspaceDir.
func NewStore(workspaceDir string) *Store {
	return &Store{workspaceDir: workspaceDir}
}

// Path returns the status document path for an agent.
func (s *Store) Path(agentID string) string {
	return filepath.Join(s.workspaceDir, "agent-"+agentID, StatusFileName)
}

// Create writes the initial pending record for an agent. The caller-supplied
// metadata is stored verbatim and never modified afterward.
func (s *Store) Create(agentID, description, parent string, depth int, metadata map[string]interface{}) (*Record, error) {
	rec := &Record{
		AgentID:         agentID,
		Status:          StatusPending,
		TaskDescription: description,
		ParentAgent:     parent,
		Depth:           depth,
		Metadata:        metadata,
	}
	if err := s.Write(rec, false); err != nil {
		return nil, err
	}
	return rec, nil
}

// Read loads an agent's status document. Absence and emptiness surface as
// ErrNotFound and ErrEmptyFile so callers can tell them apart from
// corruption.
func (s *Store) Read(agentID string) (*Record, error) {
	data, err := os.ReadFile(s.Path(agentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
		}
		return nil, fmt.Errorf("reading status for agent %s: %w", agentID, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrEmptyFile)
	}

	var fields map[string]interface{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing status for agent %s: %w", agentID, err)
	}
	var missing []string
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("status for agent %s missing required fields: %s",
			agentID, strings.Join(missing, ", "))
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing status for agent %s: %w", agentID, err)
	}
	if !rec.Status.Valid() {
		return nil, fmt.Errorf("status for agent %s has invalid status %q", agentID, rec.Status)
	}
	return &rec, nil
}

// Update moves an agent to a new status. started_at is stamped the first
// time the record enters in-progress and completed_at the first time it
// reaches completed or failed; retries keep the original timestamps.
// A non-empty summary and non-nil artifacts or errs replace the stored
// values.
func (s *Store) Update(agentID string, newStatus Status, summary string, artifacts []string, errs []AgentError) (*Record, error) {
	rec, err := s.Read(agentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if newStatus == StatusInProgress && rec.StartedAt == nil {
		rec.StartedAt = &now
	}
	if (newStatus == StatusCompleted || newStatus == StatusFailed) && rec.CompletedAt == nil {
		rec.CompletedAt = &now
	}
	rec.Status = newStatus
	if summary != "" {
		rec.Summary = summary
	}
	if artifacts != nil {
		rec.Artifacts = artifacts
	}
	if errs != nil {
		rec.Errors = errs
	}

	if err := s.Write(rec, true); err != nil {
		return nil, err
	}
	return rec, nil
}

// Write persists a record, refreshing updated_at. When validate is set the
// write is checked against the document currently on disk: writes that keep
// the status unchanged pass through (idempotent refresh), anything else must
// be a legal transition. The document is written to a temp file in the agent
// directory and renamed into place.
func (s *Store) Write(rec *Record, validate bool) error {
	if validate {
		current, err := s.Read(rec.AgentID)
		switch {
		case err == nil:
			if current.Status != rec.Status {
				if terr := ValidateTransition(current.Status, rec.Status); terr != nil {
					return terr
				}
			}
		case errors.Is(err, ErrNotFound):
			// First write for this agent, nothing to validate against.
		default:
			return err
		}
	}

	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	path := s.Path(rec.AgentID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating agent directory: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling status for agent %s: %w", rec.AgentID, err)
	}

	tmp := strings.TrimSuffix(path, ".yaml") + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing status for agent %s: %w", rec.AgentID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing status for agent %s: %w", rec.AgentID, err)
	}
	return nil
}

// List returns the ids of agents that have a status document, in directory
// order. With a non-empty filter only agents currently in that status are
// returned; documents that fail to parse are skipped rather than aborting
// the walk. A missing workspace yields an empty list.
func (s *Store) List(filter Status) ([]string, error) {
	entries, err := os.ReadDir(s.workspaceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace %s: %w", s.workspaceDir, err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "agent-") {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.workspaceDir, entry.Name(), StatusFileName)); err != nil {
			continue
		}
		id := strings.TrimPrefix(entry.Name(), "agent-")
		if filter != "" {
			rec, err := s.Read(id)
			if err != nil || rec.Status != filter {
				continue
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Package status persists per-agent execution state as one YAML document per
// agent directory. Writes go through a temp-file rename so a crash mid-write
// never leaves a corrupt document behind.
package status

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an agent.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// validTransitions maps each status to the statuses it may move to.
// completed is terminal; failed may return to pending for a retry.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {StatusPending},
}

// TransitionError reports an attempt to move an agent between states the
// lifecycle does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	allowed := validTransitions[e.From]
	if len(allowed) == 0 {
		return fmt.Sprintf("invalid transition from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	targets := make([]string, len(allowed))
	for i, s := range allowed {
		targets[i] = string(s)
	}
	return fmt.Sprintf("invalid transition from %s to %s: valid targets are %s",
		e.From, e.To, strings.Join(targets, ", "))
}

// ValidateTransition checks whether moving from one status to another is
// allowed by the lifecycle.
func ValidateTransition(from, to Status) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// AgentError is one recorded failure attached to an agent's status document.
type AgentError struct {
	Type       string    `yaml:"error_type" json:"error_type"`
	Message    string    `yaml:"message" json:"message"`
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp"`
	StackTrace string    `yaml:"stack_trace,omitempty" json:"stack_trace,omitempty"`
	FilePath   string    `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	LineNumber int       `yaml:"line_number,omitempty" json:"line_number,omitempty"`
}

// Record is the persisted status document for one agent. Metadata is set at
// creation and never touched by status transitions.
type Record struct {
	AgentID         string                 `yaml:"agent_id" json:"agent_id"`
	Status          Status                 `yaml:"status" json:"status"`
	TaskDescription string                 `yaml:"task_description" json:"task_description"`
	ParentAgent     string                 `yaml:"parent_agent" json:"parent_agent"`
	Depth           int                    `yaml:"depth" json:"depth"`
	CreatedAt       time.Time              `yaml:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `yaml:"updated_at" json:"updated_at"`
	StartedAt       *time.Time             `yaml:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt     *time.Time             `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	Summary         string                 `yaml:"summary,omitempty" json:"summary,omitempty"`
	Artifacts       []string               `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	Errors          []AgentError           `yaml:"errors,omitempty" json:"errors,omitempty"`
	Metrics         map[string]interface{} `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Metadata        map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Package config handles agentplan configuration parsing and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/swamp-dev/agentplan/internal/validate"
)

// Config represents the agentplan.yaml configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Project   ProjectConfig   `yaml:"project"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Planning  PlanningConfig  `yaml:"planning"`
	History   HistoryConfig   `yaml:"history"`
}

// ProjectConfig holds project-level settings.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// WorkspaceConfig locates the agent workspace on disk.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
}

// PlanningConfig controls validation and scheduling behavior.
type PlanningConfig struct {
	MaxDepth        int    `yaml:"max_depth"`
	AllowOrphans    bool   `yaml:"allow_orphans"`
	DefaultPriority string `yaml:"default_priority"` // high, medium, low
	TasksFile       string `yaml:"tasks_file"`
	PlanFile        string `yaml:"plan_file"`
}

// HistoryConfig controls the planning run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Project: ProjectConfig{
			Name: "my-project",
		},
		Workspace: WorkspaceConfig{
			Dir: ".agentplan",
		},
		Planning: PlanningConfig{
			MaxDepth:        validate.DefaultMaxDepth,
			AllowOrphans:    true,
			DefaultPriority: "medium",
			TasksFile:       "tasks.yaml",
			PlanFile:        "plan.yaml",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(".agentplan", "history.db"),
		},
	}
}

// Load reads and parses the agentplan.yaml config file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "agentplan.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validPriorities := map[string]bool{"high": true, "medium": true, "low": true}
	if !validPriorities[c.Planning.DefaultPriority] {
		return fmt.Errorf("invalid default_priority: %s (must be high, medium, or low)", c.Planning.DefaultPriority)
	}

	if c.Planning.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1")
	}

	if c.Workspace.Dir == "" {
		return fmt.Errorf("workspace dir must not be empty")
	}

	if c.Planning.TasksFile == "" {
		return fmt.Errorf("tasks_file must not be empty")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history path must not be empty when history is enabled")
	}

	return nil
}

// FindConfigFile searches for agentplan.yaml in current and parent directories.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		configPath := filepath.Join(dir, "agentplan.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if dir == filepath.Dir(dir) {
			break
		}
	}

	return "", fmt.Errorf("agentplan.yaml not found in %s or parent directories", cwd)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "1.0" {
		t.Errorf("expected version 1.0, got %s", cfg.Version)
	}

	if cfg.Workspace.Dir != ".agentplan" {
		t.Errorf("expected workspace .agentplan, got %s", cfg.Workspace.Dir)
	}

	if cfg.Planning.MaxDepth != 10 {
		t.Errorf("expected max_depth 10, got %d", cfg.Planning.MaxDepth)
	}

	if !cfg.Planning.AllowOrphans {
		t.Error("expected orphans allowed by default")
	}

	if cfg.Planning.DefaultPriority != "medium" {
		t.Errorf("expected default priority medium, got %s", cfg.Planning.DefaultPriority)
	}

	if !cfg.History.Enabled {
		t.Error("expected history enabled by default")
	}

	if cfg.History.Path != filepath.Join(".agentplan", "history.db") {
		t.Errorf("unexpected history path %s", cfg.History.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid priority",
			modify:  func(c *Config) { c.Planning.DefaultPriority = "urgent" },
			wantErr: true,
		},
		{
			name:    "zero max depth",
			modify:  func(c *Config) { c.Planning.MaxDepth = 0 },
			wantErr: true,
		},
		{
			name:    "empty workspace dir",
			modify:  func(c *Config) { c.Workspace.Dir = "" },
			wantErr: true,
		},
		{
			name:    "empty tasks file",
			modify:  func(c *Config) { c.Planning.TasksFile = "" },
			wantErr: true,
		},
		{
			name:    "history enabled without path",
			modify:  func(c *Config) { c.History.Path = "" },
			wantErr: true,
		},
		{
			name:    "history disabled without path",
			modify:  func(c *Config) { c.History = HistoryConfig{} },
			wantErr: false,
		},
		{
			name:    "valid high priority",
			modify:  func(c *Config) { c.Planning.DefaultPriority = "high" },
			wantErr: false,
		},
		{
			name:    "valid low priority",
			modify:  func(c *Config) { c.Planning.DefaultPriority = "low" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentplan.yaml")

	cfg := DefaultConfig()
	cfg.Project.Name = "test-project"
	cfg.Planning.MaxDepth = 5

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Project.Name != cfg.Project.Name {
		t.Errorf("expected project name %s, got %s", cfg.Project.Name, loaded.Project.Name)
	}

	if loaded.Planning.MaxDepth != 5 {
		t.Errorf("expected max_depth 5, got %d", loaded.Planning.MaxDepth)
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/agentplan.yaml")
	if err != nil {
		t.Fatalf("Load() should not error for missing file, got %v", err)
	}

	if cfg.Workspace.Dir != ".agentplan" {
		t.Errorf("expected default workspace, got %s", cfg.Workspace.Dir)
	}
}

func TestLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentplan.yaml")

	partial := "project:\n  name: partial-project\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Project.Name != "partial-project" {
		t.Errorf("expected partial-project, got %s", cfg.Project.Name)
	}

	// Unspecified sections keep their defaults.
	if cfg.Planning.MaxDepth != 10 {
		t.Errorf("expected default max_depth 10, got %d", cfg.Planning.MaxDepth)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	subdir := filepath.Join(dir, "subdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "agentplan.yaml")
	if err := os.WriteFile(configPath, []byte("version: '1.0'"), 0644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	if err := os.Chdir(subdir); err != nil {
		t.Fatal(err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() error = %v", err)
	}

	if found != configPath {
		t.Errorf("expected %s, got %s", configPath, found)
	}
}

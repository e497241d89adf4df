package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/swamp-dev/agentplan/internal/config"
	"github.com/swamp-dev/agentplan/internal/planner"
)

var (
	initName  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a project for agent planning",
	Long: `Initialize creates the files agentplan needs in a project.

This includes:
- agentplan.yaml - configuration file
- tasks.yaml - task definitions with dependencies
- the workspace directory for agent status records

Examples:
  agentplan init
  agentplan init --name my-project --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "project name (defaults to directory name)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if initName == "" {
		initName = filepath.Base(cwd)
	}

	logger.Info("initializing agentplan project", "name", initName)

	cfg := config.DefaultConfig()
	cfg.Project.Name = initName

	if err := createConfigFile(cwd, cfg); err != nil {
		return err
	}

	if err := createTasksFile(cwd, cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(cwd, cfg.Workspace.Dir), 0755); err != nil {
		return fmt.Errorf("creating workspace directory: %w", err)
	}

	fmt.Printf("\n✓ Initialized agentplan project: %s\n", initName)
	fmt.Println("\nCreated files:")
	fmt.Println("  - agentplan.yaml  (configuration)")
	fmt.Println("  - tasks.yaml      (task definitions)")
	fmt.Println("  - .agentplan/     (agent workspace)")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit tasks.yaml to describe your tasks and their dependencies")
	fmt.Println("  2. Run 'agentplan validate' to check the dependency graph")
	fmt.Println("  3. Run 'agentplan plan' to schedule the agents")

	return nil
}

func createConfigFile(dir string, cfg *config.Config) error {
	path := filepath.Join(dir, "agentplan.yaml")

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			logger.Info("agentplan.yaml already exists, skipping")
			return nil
		}
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	logger.Info("created agentplan.yaml")
	return nil
}

func createTasksFile(dir string, cfg *config.Config) error {
	path := filepath.Join(dir, cfg.Planning.TasksFile)

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			logger.Info("tasks file already exists, skipping", "path", cfg.Planning.TasksFile)
			return nil
		}
	}

	ts := planner.DefaultTaskSet(cfg.Project.Name)
	if err := ts.Save(path); err != nil {
		return fmt.Errorf("creating tasks file: %w", err)
	}

	logger.Info("created tasks file", "path", cfg.Planning.TasksFile)
	return nil
}

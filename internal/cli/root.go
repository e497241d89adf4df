// Package cli provides the command-line interface for agentplan.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/swamp-dev/agentplan/internal/config"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "agentplan",
	Short: "Dependency-aware planning for parallel coding agents",
	Long: `Agentplan turns a flat list of tasks into a validated dependency graph
and a wave-based execution schedule for parallel coding agents.

It assigns collision-free agent ids, checks the graph for missing and
circular dependencies, computes which agents can run concurrently, and
tracks per-agent status in crash-safe YAML files.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./agentplan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("agentplan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration for a command: the
// --config flag if given, otherwise the nearest agentplan.yaml up the
// directory tree, otherwise defaults.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if found, err := config.FindConfigFile(); err == nil {
			path = found
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

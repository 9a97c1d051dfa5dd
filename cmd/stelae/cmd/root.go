// Package cmd provides the CLI commands for stelae.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stelae/stelae/internal/config"
	"github.com/stelae/stelae/internal/logging"
	"github.com/stelae/stelae/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the stelae CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stelae",
		Short: "Search-index synchronization service for digital asset graphs",
		Long: `Stelae keeps full-text search indices synchronized with a graph of
digitization objects: units, projects, subjects, items, capture sets,
models, scenes, and their assets.

It derives one search document per object from the object graph,
maintains hierarchy and roll-up fields across ancestors, and serves an
admin surface for health, metrics, and reindex triggers.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("stelae version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (YAML)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadConfig loads configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the default slog logger per the config. The
// log file lives under the data directory unless configured otherwise.
func setupLogging(cfg *config.Config) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.Logging.FilePath
	if logCfg.FilePath == "" {
		logCfg.FilePath = filepath.Join(cfg.Paths.DataDir, "logs", "stelae.log")
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func teardownLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

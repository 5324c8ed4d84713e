// Package commands provides the CLI commands for the Chat-Arena.
package commands

import (
	"fmt"
	"os"

	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/config"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/s376930/Chat-Arena/pkg/types"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	rootConfigFile string
	rootDataDir    string
	rootLogLevel   string
	rootPretty     bool
)

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Chat-Arena - paired-conversation research server",
	Long: `Chat-Arena pairs participants for anonymous text conversations,
optionally substituting AI participants, and records every session
to a data directory for later analysis.

Run 'arena serve' to start the server. The topics, tasks, consent and
conversations commands administer a data directory without a running
server.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := rootLogLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		logging.Init(logging.Config{Level: level, Pretty: rootPretty})
	},
	// If no subcommand, show help
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&rootConfigFile, "config", "", "Path to a configuration file")
	rootCmd.PersistentFlags().StringVar(&rootDataDir, "data", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&rootPretty, "pretty", false, "Human-readable console logs")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("arena %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(conversationsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the configuration honoring the global flags.
func loadConfig() (*types.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWith(workDir, rootConfigFile)
	if err != nil {
		return nil, err
	}

	if rootDataDir != "" {
		cfg.Data.Dir = rootDataDir
	}
	return cfg, nil
}

// openCatalog opens the catalog store backing the configured data directory.
func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.New(storage.New(cfg.Data.Dir)), nil
}

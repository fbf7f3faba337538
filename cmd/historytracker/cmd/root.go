package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/historytracker/internal/config"
	"github.com/dbsmedya/historytracker/internal/database"
	"github.com/dbsmedya/historytracker/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile      string
	logLevel     string
	logFormat    string
	historyTable string
)

var rootCmd = &cobra.Command{
	Use:   "historytracker",
	Short: "Attribute-level change history for MySQL-backed entities",
	Long: `A change-auditing toolkit that records who changed which attributes of
which entity, and when, into a MySQL history table.

Features:
  - Per-entity attribute selection (only / except / global ignore list)
  - Association snapshots stored alongside each change
  - Derived method values captured at change time
  - Create, update and destroy events with per-entity filtering
  - Deterministic JSON history rows`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "historytracker.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Storage overrides
	rootCmd.PersistentFlags().StringVar(&historyTable, "history-table", "",
		"Override the history table name")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel     string
	LogFormat    string
	HistoryTable string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		HistoryTable: historyTable,
	}
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.HistoryTable)
	return cfg, nil
}

// session bundles what database-backed commands need.
type session struct {
	ctx  context.Context
	cfg  *config.Config
	log  *logger.Logger
	db   *database.Manager
	stop context.CancelFunc
}

// openSession loads and validates the configuration, builds the logger and
// connects to the history database. The context is canceled on SIGINT or
// SIGTERM.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := database.SetupSignalHandler()
	dbManager := database.NewManager(&cfg.HistoryStore, log)
	if err := dbManager.Connect(ctx); err != nil {
		stop()
		return nil, err
	}

	return &session{ctx: ctx, cfg: cfg, log: log, db: dbManager, stop: stop}, nil
}

// Close releases the connection and the signal handler.
func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warnf("Closing history database: %v", err)
	}
	_ = s.log.Sync()
	s.stop()
}

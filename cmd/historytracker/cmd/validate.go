package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/historytracker/internal/schema"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and check tracked tables",
	Long: `Validate checks the configuration file and resolves every tracked entity
against the history database.

Checks performed:
  - Configuration syntax and required fields
  - Database connectivity (history store)
  - Table existence for every tracked entity
  - Included associations declared as relations
  - Lifecycle event names
  - History table presence

Example:
  historytracker validate --config historytracker.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.log.Info("Starting validation checks...")

	if err := s.db.Ping(s.ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	inspector, err := schema.NewInspector(s.db.History, s.cfg.HistoryStore.Database, s.log)
	if err != nil {
		return err
	}

	names := s.cfg.EntityNames()
	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Entities found: %d\n\n", len(names))

	registry := tracker.NewRegistry(schema.RegistryOptions(s.cfg, s.log)...)

	hasErrors := false
	for _, name := range names {
		ec := s.cfg.Entities[name]
		cmd.Printf("--- Entity: %s ---\n", name)
		cmd.Printf("Table: %s\n", ec.TableName(name))

		table, err := inspector.Describe(s.ctx, name, ec)
		if err != nil {
			cmd.Printf("%s Table check failed: %v\n\n", color.Red.Sprint("❌"), err)
			hasErrors = true
			continue
		}

		opts, err := schema.Options(ec)
		if err != nil {
			cmd.Printf("%s Options invalid: %v\n\n", color.Red.Sprint("❌"), err)
			hasErrors = true
			continue
		}

		tc, err := registry.Track(table, opts)
		if err != nil {
			cmd.Printf("%s Tracking rejected: %v\n\n", color.Red.Sprint("❌"), err)
			hasErrors = true
			continue
		}

		cmd.Printf("Tracked attributes: %d of %d columns\n", len(tc.TrackedAttributes()), len(table.ColumnNames()))
		cmd.Printf("%s All checks passed\n\n", color.Green.Sprint("✅"))
	}

	if _, err := inspector.Columns(s.ctx, s.cfg.Tracking.Table); err != nil {
		cmd.Printf("%s History table %s missing; run 'historytracker migrate'\n\n",
			color.Yellow.Sprint("⚠"), s.cfg.Tracking.Table)
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more entities")
	}

	cmd.Println("=== Validation Complete ===")
	cmd.Printf("%s All entities validated successfully\n", color.Green.Sprint("✅"))
	return nil
}

package cmd

import (
	"context"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/historytracker/internal/lock"
	"github.com/dbsmedya/historytracker/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the history table",
	Long: `Migrate creates the history table in the history database if it does
not already exist. It is safe to run on every deploy; concurrent runs are
serialized with a MySQL named lock.

Example:
  historytracker migrate --config historytracker.yaml --history-table audit_log`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	historyStore, err := store.NewMySQLStore(s.db.History, s.cfg.Tracking.Table, s.log)
	if err != nil {
		return err
	}
	err = lock.WithLock(s.ctx, s.db.History, lock.MigrationLockName(historyStore.Table()), lock.DefaultTimeout, s.log,
		func(ctx context.Context) error {
			return historyStore.InitializeTable(ctx)
		})
	if err != nil {
		return err
	}

	cmd.Printf("%s History table %s is ready\n", color.Green.Sprint("✅"), historyStore.Table())
	return nil
}

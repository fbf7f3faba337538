package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/historytracker/internal/store"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

var (
	historyEntity string
	historyID     string
	historyScope  string
	historyLimit  int
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded history entries",
	Long: `History prints the most recent entries from the history table, newest
first, optionally filtered by entity type, entity id or scope.

Example:
  historytracker history --entity blog_post --id 42 --limit 10
  historytracker history --scope blog_post --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyEntity, "entity", "e", "", "Filter by entity type")
	historyCmd.Flags().StringVar(&historyID, "id", "", "Filter by entity id (string form of the primary key)")
	historyCmd.Flags().StringVarP(&historyScope, "scope", "s", "", "Filter by scope")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON lines")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	historyStore, err := store.NewMySQLStore(s.db.History, s.cfg.Tracking.Table, s.log)
	if err != nil {
		return err
	}

	entries, err := historyStore.List(s.ctx, store.Filter{
		EntityType: historyEntity,
		EntityID:   historyID,
		Scope:      historyScope,
		Limit:      historyLimit,
	})
	if err != nil {
		return err
	}

	if historyJSON {
		return printEntriesJSON(entries)
	}
	printEntries(entries)
	return nil
}

func printEntriesJSON(entries []*tracker.HistoryEntry) error {
	enc := json.NewEncoder(outputWriter)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

func printEntries(entries []*tracker.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(outputWriter, "No history entries found")
		return
	}

	for i, entry := range entries {
		if i > 0 {
			fmt.Fprintln(outputWriter)
		}

		modifier := entry.Modifier
		if modifier == "" {
			modifier = "(unknown)"
		}
		fmt.Fprintf(outputWriter, "%s %s %s#%s by %s\n",
			color.Gray.Sprint(entry.Timestamp.Format(time.RFC3339)),
			eventLabel(entry.Event),
			entry.EntityType,
			entry.EntityID,
			modifier,
		)

		entry.Changes.Range(func(attr string, change tracker.Change) bool {
			fmt.Fprintf(outputWriter, "  %s: %s → %s\n", attr, formatValue(change.Before), formatValue(change.After))
			return true
		})

		entry.Associations.Range(func(name string, rows []*tracker.Attributes) bool {
			parts := make([]string, len(rows))
			for k, row := range rows {
				raw, err := json.Marshal(row)
				if err != nil {
					parts[k] = "?"
					continue
				}
				parts[k] = string(raw)
			}
			fmt.Fprintf(outputWriter, "  @%s: [%s]\n", name, strings.Join(parts, ", "))
			return true
		})

		entry.DerivedValues.Range(func(method string, value interface{}) bool {
			fmt.Fprintf(outputWriter, "  %s(): %s\n", method, formatValue(value))
			return true
		})
	}
}

func eventLabel(event tracker.EventKind) string {
	switch event {
	case tracker.EventCreate:
		return color.Green.Sprint(string(event))
	case tracker.EventDestroy:
		return color.Red.Sprint(string(event))
	default:
		return color.Yellow.Sprint(string(event))
	}
}

func formatValue(v interface{}) string {
	if v == nil {
		return "∅"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

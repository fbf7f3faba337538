package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/historytracker/internal/schema"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planEntity string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what will be recorded for each tracked entity",
	Long: `Plan resolves the tracking configuration against the live table
definitions and shows, per entity, exactly what a history entry will hold.

The plan shows:
  - Tracked attributes (diff order)
  - Ignored attributes (global ignore list, except, or outside only)
  - Association snapshots and their fields
  - Derived methods and tracked events

Example:
  historytracker plan --config historytracker.yaml --entity blog_post`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planEntity, "entity", "e", "",
		"Entity name from configuration file (default: all)")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	names := s.cfg.EntityNames()
	if planEntity != "" {
		if _, err := s.cfg.GetEntity(planEntity); err != nil {
			return err
		}
		names = []string{planEntity}
	}

	inspector, err := schema.NewInspector(s.db.History, s.cfg.HistoryStore.Database, s.log)
	if err != nil {
		return err
	}
	registry := tracker.NewRegistry(schema.RegistryOptions(s.cfg, s.log)...)

	for i, name := range names {
		ec := s.cfg.Entities[name]
		table, err := inspector.Describe(s.ctx, name, ec)
		if err != nil {
			return fmt.Errorf("entity %s: %w", name, err)
		}
		opts, err := schema.Options(ec)
		if err != nil {
			return fmt.Errorf("entity %s: %w", name, err)
		}
		tc, err := registry.Track(table, opts)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(outputWriter)
		}
		printPlan(table, tc)
	}
	return nil
}

// printPlan renders one entity's resolved configuration.
func printPlan(table *schema.Table, tc *tracker.Configuration) {
	printHeader("Tracking Plan: %s", tc.EntityType())

	fmt.Fprintln(outputWriter)
	printSection("Overview")
	printKeyValues([][2]string{
		{"Table", table.TableName()},
		{"Scope", tc.Scope()},
		{"Columns", fmt.Sprintf("%d", len(table.ColumnNames()))},
		{"Events", joinEvents(tc.Events())},
		{"Change detector", detectorLabel(tc)},
	})

	fmt.Fprintln(outputWriter)
	printSection("Tracked Attributes (diff order)")
	printList(tc.TrackedAttributes(), color.Green.Sprint("+"))

	fmt.Fprintln(outputWriter)
	printSection("Ignored Attributes")
	printList(tc.NonTrackedAttributes(), color.Gray.Sprint("-"))

	fmt.Fprintln(outputWriter)
	printSection("Associations")
	rules := tc.Associations()
	if len(rules) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
	}
	rows := make([][2]string, 0, len(rules))
	for _, rule := range rules {
		kind := "1-1"
		if rule.Relation.Many {
			kind = schema.DependencyOneToMany
		}
		fields := "all fields"
		if !rule.AllFields() {
			fields = strings.Join(rule.Fields, ", ")
		}
		rows = append(rows, [2]string{
			rule.Name,
			fmt.Sprintf("→ %s (%s) FK: %s [%s]", rule.Relation.Target, kind, rule.Relation.ForeignKey, fields),
		})
	}
	printKeyValues(rows)

	fmt.Fprintln(outputWriter)
	printSection("Derived Methods")
	printList(tc.Methods(), color.Cyan.Sprint("ƒ"))
}

func joinEvents(events []tracker.EventKind) string {
	names := make([]string, len(events))
	for i, event := range events {
		names[i] = string(event)
	}
	return strings.Join(names, ", ")
}

func detectorLabel(tc *tracker.Configuration) string {
	if tc.HasCustomDetector() {
		return "custom"
	}
	return "default"
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// printKeyValues prints rows with the keys padded to a common display width.
func printKeyValues(rows [][2]string) {
	width := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > width {
			width = w
		}
	}
	for _, row := range rows {
		fmt.Fprintf(outputWriter, "  %s  %s\n", runewidth.FillRight(row[0]+":", width+1), row[1])
	}
}

// printList prints one item per line behind marker, or "(none)".
func printList(items []string, marker string) {
	if len(items) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(outputWriter, "  %s %s\n", marker, item)
	}
}

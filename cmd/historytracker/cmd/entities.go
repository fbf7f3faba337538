package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List all tracked entities defined in configuration",
	Long: `Entities displays every entity type configured for history tracking
along with its table, scope, attribute selection, associations and events.
No database connection is made.

Example:
  historytracker entities --config historytracker.yaml`,
	RunE: runEntities,
}

func init() {
	rootCmd.AddCommand(entitiesCmd)
}

func runEntities(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := cfg.EntityNames()
	if len(names) == 0 {
		cmd.Printf("No entities defined in %s\n", configFile)
		return nil
	}

	cmd.Printf("Entities defined in %s:\n\n", configFile)

	for i, name := range names {
		entity, err := cfg.GetEntity(name)
		if err != nil {
			return fmt.Errorf("failed to get entity %q: %w", name, err)
		}

		cmd.Printf("%d. %s\n", i+1, name)
		cmd.Printf("   Table:         %s\n", entity.TableName(name))
		if entity.Scope != "" {
			cmd.Printf("   Scope:         %s\n", entity.Scope)
		} else {
			cmd.Printf("   Scope:         (default)\n")
		}

		switch {
		case len(entity.Only) > 0:
			cmd.Printf("   Only:          %s\n", strings.Join(entity.Only, ", "))
		case len(entity.Except) > 0:
			cmd.Printf("   Except:        %s\n", strings.Join(entity.Except, ", "))
		default:
			cmd.Printf("   Attributes:    all columns\n")
		}

		if len(entity.On) > 0 {
			cmd.Printf("   Events:        %s\n", strings.Join(entity.On, ", "))
		} else {
			cmd.Printf("   Events:        create, update, destroy\n")
		}

		if len(entity.Methods) > 0 {
			cmd.Printf("   Methods:       %s\n", strings.Join(entity.Methods, ", "))
		}

		cmd.Printf("   Includes:      %d association(s)\n", len(entity.Include))
		for _, inc := range entity.Include {
			fields := "all fields"
			if len(inc.Fields) > 0 {
				fields = strings.Join(inc.Fields, ", ")
			}
			rel, _ := entity.GetRelation(inc.Name)
			cmd.Printf("      - %s -> %s (FK: %s, Type: %s) [%s]\n",
				inc.Name, rel.Table, rel.ForeignKey, rel.DependencyType, fields)
		}

		if i < len(names)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d entity type(s)\n", len(names))
	return nil
}

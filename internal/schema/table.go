// Package schema describes configured MySQL tables as tracker entity types.
package schema

import (
	"fmt"
	"slices"

	"github.com/dbsmedya/historytracker/internal/config"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

// DependencyOneToMany marks a relation that yields any number of rows.
const DependencyOneToMany = "1-N"

// Table is a tracker.EntityType backed by a table's column list and the
// relations declared for it in configuration.
type Table struct {
	name      string
	table     string
	columns   []string
	relations map[string]tracker.RelationDescriptor
}

// NewTable builds a Table. name is the entity type name used for tracking;
// table is the physical table.
func NewTable(name, table string, columns []string, relations []config.RelationConfig) *Table {
	t := &Table{
		name:      name,
		table:     table,
		columns:   slices.Clone(columns),
		relations: make(map[string]tracker.RelationDescriptor, len(relations)),
	}
	for _, rel := range relations {
		t.relations[rel.Name] = tracker.RelationDescriptor{
			Name:       rel.Name,
			Target:     rel.Table,
			ForeignKey: rel.ForeignKey,
			Many:       rel.DependencyType == DependencyOneToMany,
		}
	}
	return t
}

// Name returns the entity type name.
func (t *Table) Name() string { return t.name }

// TableName returns the physical table name.
func (t *Table) TableName() string { return t.table }

// ColumnNames returns the columns in ordinal order.
func (t *Table) ColumnNames() []string { return slices.Clone(t.columns) }

// Relation resolves a configured relation.
func (t *Table) Relation(name string) (tracker.RelationDescriptor, error) {
	rel, ok := t.relations[name]
	if !ok {
		return tracker.RelationDescriptor{}, fmt.Errorf("%w: %s has no relation %q", tracker.ErrUnknownRelation, t.name, name)
	}
	return rel, nil
}

// Options converts an entity's configuration into tracker options.
//
// An include with no fields, whether the key is absent or written as
// "fields: []", snapshots every attribute. YAML decoding does not keep the
// two apart, so the explicit empty snapshot of tracker.AssocFields has no
// configuration form.
func Options(ec config.EntityConfig) (tracker.Options, error) {
	opts := tracker.Options{
		Scope:   ec.Scope,
		Only:    slices.Clone(ec.Only),
		Except:  slices.Clone(ec.Except),
		Methods: slices.Clone(ec.Methods),
	}

	for _, inc := range ec.Include {
		if len(inc.Fields) == 0 {
			opts.Include = append(opts.Include, tracker.Assoc(inc.Name))
			continue
		}
		opts.Include = append(opts.Include, tracker.AssocFields(inc.Name, inc.Fields...))
	}

	for _, name := range ec.On {
		event, err := tracker.ParseEvent(name)
		if err != nil {
			return tracker.Options{}, err
		}
		opts.On = append(opts.On, event)
	}

	return opts, nil
}

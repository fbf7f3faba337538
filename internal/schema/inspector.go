package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/historytracker/internal/config"
	"github.com/dbsmedya/historytracker/internal/logger"
	"github.com/dbsmedya/historytracker/internal/sqlutil"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

// Inspector reads table metadata from information_schema.
type Inspector struct {
	db       *sql.DB
	database string
	logger   *logger.Logger
}

// NewInspector creates an inspector for the tables of database.
func NewInspector(db *sql.DB, database string, log *logger.Logger) (*Inspector, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if database == "" {
		return nil, fmt.Errorf("database name is required")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Inspector{
		db:       db,
		database: database,
		logger:   log,
	}, nil
}

// Columns returns the column names of table in ordinal order.
func (i *Inspector) Columns(ctx context.Context, table string) ([]string, error) {
	const query = `
		SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := i.db.QueryContext(ctx, query, i.database, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found in database %s", table, i.database)
	}
	return columns, nil
}

// Describe builds the entity type for a configured entity.
func (i *Inspector) Describe(ctx context.Context, name string, ec config.EntityConfig) (*Table, error) {
	table := ec.TableName(name)
	columns, err := i.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	i.logger.WithTable(table).Debugf("Described entity %s with %d columns", name, len(columns))
	return NewTable(name, table, columns, ec.Relations), nil
}

// LoadRelated reads the rows reachable from the row with primary key pk
// through relation, in primary storage order.
func (i *Inspector) LoadRelated(ctx context.Context, t *Table, relation string, pk interface{}) ([]tracker.Entity, error) {
	rel, err := t.Relation(relation)
	if err != nil {
		return nil, err
	}

	target, err := sqlutil.QuoteIdentifierSafe(rel.Target)
	if err != nil {
		return nil, fmt.Errorf("relation %s: %w", relation, err)
	}
	fk, err := sqlutil.QuoteIdentifierSafe(rel.ForeignKey)
	if err != nil {
		return nil, fmt.Errorf("relation %s: %w", relation, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", target, fk)
	if !rel.Many {
		query += " LIMIT 1"
	}

	rows, err := i.db.QueryContext(ctx, query, pk)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", relation, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", relation, err)
	}
	relatedType := NewTable(rel.Target, rel.Target, columns, nil)

	var related []tracker.Entity
	for rows.Next() {
		raw := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for k := range raw {
			dest[k] = &raw[k]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", relation, err)
		}

		attrs := make(map[string]interface{}, len(columns))
		for k, column := range columns {
			if b, ok := raw[k].([]byte); ok {
				attrs[column] = string(b)
				continue
			}
			attrs[column] = raw[k]
		}
		related = append(related, &Row{Type: relatedType, Key: attrs[primaryKeyColumn(columns)], Current: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", relation, err)
	}
	return related, nil
}

// primaryKeyColumn guesses the key column of a related table: "id" when
// present, otherwise the first column.
func primaryKeyColumn(columns []string) string {
	for _, column := range columns {
		if column == "id" {
			return column
		}
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return ""
}

// RegisterAll describes and registers every configured entity, in sorted
// name order. The first failure stops registration.
func RegisterAll(ctx context.Context, registry *tracker.Registry, inspector *Inspector, cfg *config.Config) ([]*tracker.Configuration, error) {
	names := cfg.EntityNames()
	configs := make([]*tracker.Configuration, 0, len(names))

	for _, name := range names {
		ec := cfg.Entities[name]

		t, err := inspector.Describe(ctx, name, ec)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", name, err)
		}
		opts, err := Options(ec)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", name, err)
		}
		tc, err := registry.Track(t, opts)
		if err != nil {
			return nil, err
		}

		inspector.logger.WithEntity(name, "").WithScope(tc.Scope()).Infof("Tracking %d attributes", len(tc.TrackedAttributes()))
		configs = append(configs, tc)
	}
	return configs, nil
}

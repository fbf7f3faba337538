package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/historytracker/internal/logger"
	"github.com/dbsmedya/historytracker/internal/sqlutil"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

var errNilEntry = errors.New("history entry is nil")

// createTableSQL is formatted with the quoted table name.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id CHAR(36) NOT NULL PRIMARY KEY,
	entity_type VARCHAR(255) NOT NULL,
	entity_id VARCHAR(255) NOT NULL,
	scope VARCHAR(255) NOT NULL,
	event VARCHAR(16) NOT NULL,
	changes JSON NOT NULL,
	associations JSON NOT NULL,
	derived_values JSON NOT NULL,
	modifier VARCHAR(255) NOT NULL DEFAULT '',
	recorded_at DATETIME(6) NOT NULL,
	INDEX idx_entity (entity_type, entity_id, recorded_at),
	INDEX idx_scope (scope, recorded_at)
) ENGINE=InnoDB;
`

const selectColumns = "id, entity_type, entity_id, scope, event, changes, associations, derived_values, modifier, recorded_at"

// MySQLStore writes history entries to a MySQL table.
//
// Changes, associations and derived values are stored as JSON documents
// whose key order matches the entry, so reading them back reproduces it.
type MySQLStore struct {
	db     *sql.DB
	table  string
	quoted string
	logger *logger.Logger
}

// NewMySQLStore creates a store writing to table on db.
func NewMySQLStore(db *sql.DB, table string, log *logger.Logger) (*MySQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, fmt.Errorf("invalid history table: %w", err)
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &MySQLStore{
		db:     db,
		table:  table,
		quoted: quoted,
		logger: log.WithTable(table),
	}, nil
}

// Table returns the unquoted history table name.
func (s *MySQLStore) Table() string {
	return s.table
}

// InitializeTable creates the history table if it does not exist.
//
// This method is idempotent and safe to call on every startup.
func (s *MySQLStore) InitializeTable(ctx context.Context) error {
	s.logger.Debug("Initializing history table")

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTableSQL, s.quoted)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}

	s.logger.Info("History table initialized")
	return nil
}

// Store inserts entry. Failures are returned as *tracker.StorageError.
func (s *MySQLStore) Store(ctx context.Context, entry *tracker.HistoryEntry) error {
	if entry == nil {
		return &tracker.StorageError{Op: "insert", Err: errNilEntry}
	}

	changes, err := encodeJSON(entry.Changes)
	if err != nil {
		return &tracker.StorageError{Op: "encode changes", Err: err}
	}
	associations, err := encodeJSON(entry.Associations)
	if err != nil {
		return &tracker.StorageError{Op: "encode associations", Err: err}
	}
	derived, err := encodeJSON(entry.DerivedValues)
	if err != nil {
		return &tracker.StorageError{Op: "encode derived values", Err: err}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.quoted, selectColumns)
	_, err = s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.EntityType,
		entry.EntityID,
		entry.Scope,
		string(entry.Event),
		changes,
		associations,
		derived,
		entry.Modifier,
		entry.Timestamp.UTC(),
	)
	if err != nil {
		return &tracker.StorageError{Op: "insert", Err: err}
	}

	s.logger.Debugf("Stored history entry %s for %s %s", entry.ID, entry.EntityType, entry.EntityID)
	return nil
}

// List returns the entries matching filter, newest first.
func (s *MySQLStore) List(ctx context.Context, filter Filter) ([]*tracker.HistoryEntry, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if filter.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, filter.Scope)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectColumns, s.quoted)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &tracker.StorageError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var entries []*tracker.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, &tracker.StorageError{Op: "list", Err: err}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &tracker.StorageError{Op: "list", Err: err}
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*tracker.HistoryEntry, error) {
	var (
		entry                           tracker.HistoryEntry
		event                           string
		changes, associations, derived []byte
		recordedAt                      time.Time
	)
	err := rows.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Scope,
		&event,
		&changes,
		&associations,
		&derived,
		&entry.Modifier,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Event = tracker.EventKind(event)
	entry.Timestamp = recordedAt

	entry.Changes = tracker.NewOrdered[tracker.Change]()
	if err := json.Unmarshal(changes, entry.Changes); err != nil {
		return nil, fmt.Errorf("decoding changes of %s: %w", entry.ID, err)
	}
	entry.Associations = tracker.NewOrdered[[]*tracker.Attributes]()
	if err := json.Unmarshal(associations, entry.Associations); err != nil {
		return nil, fmt.Errorf("decoding associations of %s: %w", entry.ID, err)
	}
	entry.DerivedValues = tracker.NewOrdered[interface{}]()
	if err := json.Unmarshal(derived, entry.DerivedValues); err != nil {
		return nil, fmt.Errorf("decoding derived values of %s: %w", entry.ID, err)
	}
	return &entry, nil
}

// encodeJSON renders an ordered map, writing an empty object for nil.
func encodeJSON(v json.Marshaler) (string, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

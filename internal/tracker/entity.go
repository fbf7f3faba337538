// Package tracker records attribute-level history for tracked entities.
//
// A host registers each entity type once with a Registry, choosing which
// attributes, associations and derived methods are captured and on which
// lifecycle events. A Recorder is then wired into the host's create, update
// and destroy hooks; on each event it diffs the entity's attributes,
// snapshots the declared associations and hands the resulting HistoryEntry
// to a Store.
package tracker

import (
	"context"
	"fmt"
	"strings"
)

// EventKind is a lifecycle event that can produce a history entry.
type EventKind string

const (
	EventCreate  EventKind = "create"
	EventUpdate  EventKind = "update"
	EventDestroy EventKind = "destroy"
)

// AllEvents lists every lifecycle event in canonical order.
var AllEvents = []EventKind{EventCreate, EventUpdate, EventDestroy}

// ParseEvent converts a configuration string such as "update" to an EventKind.
func ParseEvent(s string) (EventKind, error) {
	event := EventKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllEvents {
		if event == known {
			return event, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// EntityType describes a kind of persistent entity. It is supplied by the host
// and treated as read-only.
type EntityType interface {
	// Name identifies the type, e.g. "BlogPost" or "blog.BlogPost".
	Name() string
	// ColumnNames lists every attribute in declaration order.
	ColumnNames() []string
	// Relation resolves a relation by name. Unknown names must return an
	// error wrapping ErrUnknownRelation.
	Relation(name string) (RelationDescriptor, error)
}

// RelationDescriptor is the resolved form of a relation declared on an entity type.
type RelationDescriptor struct {
	Name       string
	Target     string // related entity type or table
	ForeignKey string
	Many       bool // true for 1-N relations
}

// Entity is a single persistent instance as seen from a lifecycle hook.
type Entity interface {
	EntityType() EntityType
	PrimaryKey() interface{}
	// CurrentAttributes returns the in-memory attribute values.
	CurrentAttributes() map[string]interface{}
	// PriorAttributes returns the last persisted values. Only meaningful
	// before an update is written.
	PriorAttributes() map[string]interface{}
	// Invoke calls a zero-argument method by name and returns its value.
	Invoke(ctx context.Context, method string) (interface{}, error)
	// Related loads the entities reachable through a relation.
	Related(ctx context.Context, relation string) ([]Entity, error)
}

package schema

import (
	"context"
	"fmt"

	"github.com/dbsmedya/historytracker/internal/tracker"
)

// RelatedLoader loads the entities reachable through a relation.
type RelatedLoader func(ctx context.Context, relation string) ([]tracker.Entity, error)

// Row is a map-backed tracker.Entity for hosts that work with plain rows
// instead of typed models.
type Row struct {
	Type    tracker.EntityType
	Key     interface{}
	Current map[string]interface{}
	Prior   map[string]interface{}
	Methods map[string]func(ctx context.Context) (interface{}, error)
	Loader  RelatedLoader
}

// NewRow creates a row of t whose related entities are loaded by inspector.
func NewRow(inspector *Inspector, t *Table, key interface{}, current, prior map[string]interface{}) *Row {
	return &Row{
		Type:    t,
		Key:     key,
		Current: current,
		Prior:   prior,
		Loader: func(ctx context.Context, relation string) ([]tracker.Entity, error) {
			return inspector.LoadRelated(ctx, t, relation, key)
		},
	}
}

func (r *Row) EntityType() tracker.EntityType            { return r.Type }
func (r *Row) PrimaryKey() interface{}                   { return r.Key }
func (r *Row) CurrentAttributes() map[string]interface{} { return r.Current }
func (r *Row) PriorAttributes() map[string]interface{}   { return r.Prior }

// Invoke calls a registered method.
func (r *Row) Invoke(ctx context.Context, method string) (interface{}, error) {
	fn, ok := r.Methods[method]
	if !ok {
		return nil, fmt.Errorf("row of %s has no method %q", r.typeName(), method)
	}
	return fn(ctx)
}

// Related delegates to Loader; a row without one has no related entities.
func (r *Row) Related(ctx context.Context, relation string) ([]tracker.Entity, error) {
	if r.Loader == nil {
		return nil, nil
	}
	return r.Loader(ctx, relation)
}

func (r *Row) typeName() string {
	if r.Type == nil {
		return "<nil>"
	}
	return r.Type.Name()
}

package tracker

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/historytracker/internal/logger"
	"github.com/dbsmedya/historytracker/internal/values"
)

// Store persists history entries.
type Store interface {
	Store(ctx context.Context, entry *HistoryEntry) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, entry *HistoryEntry) error

// Store calls f(ctx, entry).
func (f StoreFunc) Store(ctx context.Context, entry *HistoryEntry) error { return f(ctx, entry) }

// Hook is the callback shape a host wires into its lifecycle dispatch.
type Hook func(ctx context.Context, entity Entity) error

// traversalState is the position of one event's capture in the
// Idle -> Capturing -> Assembled -> Emitted sequence.
type traversalState int

const (
	stateIdle traversalState = iota
	stateCapturing
	stateAssembled
	stateEmitted
)

func (s traversalState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCapturing:
		return "capturing"
	case stateAssembled:
		return "assembled"
	case stateEmitted:
		return "emitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// traversal tracks a single event on a single entity.
type traversal struct {
	state  traversalState
	event  EventKind
	entity Entity
	logger *logger.Logger
}

func (t *traversal) advance(next traversalState) {
	t.logger.Debugf("Traversal %s -> %s", t.state, next)
	t.state = next
}

// Recorder turns lifecycle events into history entries.
//
// It runs synchronously inside the calling hook and keeps no per-event
// state between calls, so one Recorder may serve concurrent hooks.
type Recorder struct {
	registry       *Registry
	store          Store
	logger         *logger.Logger
	now            func() time.Time
	newID          func() uuid.UUID
	captureTimeout time.Duration
}

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(log *logger.Logger) RecorderOption {
	return func(r *Recorder) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides uuid.New for entry IDs.
func WithIDGenerator(newID func() uuid.UUID) RecorderOption {
	return func(r *Recorder) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithCaptureTimeout bounds the association lookups and method calls made
// while capturing one event. Zero disables the bound.
func WithCaptureTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.captureTimeout = d
	}
}

// NewRecorder creates a Recorder reading configurations from registry and
// writing entries to store.
func NewRecorder(registry *Registry, store Store, opts ...RecorderOption) (*Recorder, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}

	r := &Recorder{
		registry: registry,
		store:    store,
		logger:   logger.NewNop(),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OnCreate records a create event. Call it after the entity is persisted.
func (r *Recorder) OnCreate(ctx context.Context, entity Entity) error {
	return r.record(ctx, EventCreate, entity)
}

// OnBeforeUpdate records an update event. Call it before the update is
// written, while prior values are still observable.
func (r *Recorder) OnBeforeUpdate(ctx context.Context, entity Entity) error {
	return r.record(ctx, EventUpdate, entity)
}

// OnBeforeDestroy records a destroy event. Call it before the row is deleted.
func (r *Recorder) OnBeforeDestroy(ctx context.Context, entity Entity) error {
	return r.record(ctx, EventDestroy, entity)
}

// Hook returns the callback for event, or nil for an unknown event.
func (r *Recorder) Hook(event EventKind) Hook {
	switch event {
	case EventCreate:
		return r.OnCreate
	case EventUpdate:
		return r.OnBeforeUpdate
	case EventDestroy:
		return r.OnBeforeDestroy
	default:
		return nil
	}
}

// Capture builds the history entry for event without storing it. It returns
// a nil entry when the type or event is not tracked, or when nothing worth
// recording happened. Hosts that queue storage themselves use it directly.
func (r *Recorder) Capture(ctx context.Context, event EventKind, entity Entity) (*HistoryEntry, error) {
	t := &traversal{state: stateIdle, event: event, entity: entity, logger: r.logger.WithEvent(string(event))}
	return r.capture(ctx, t)
}

func (r *Recorder) record(ctx context.Context, event EventKind, entity Entity) error {
	t := &traversal{state: stateIdle, event: event, entity: entity, logger: r.logger.WithEvent(string(event))}

	entry, err := r.capture(ctx, t)
	if err != nil {
		t.logger.Warnf("History capture aborted: %v", err)
		return err
	}
	if entry == nil {
		return nil
	}

	if err := r.store.Store(ctx, entry); err != nil {
		var storageErr *StorageError
		if !errors.As(err, &storageErr) {
			err = &StorageError{Op: "store", Err: err}
		}
		t.logger.Errorf("History entry %s not stored: %v", entry.ID, err)
		return err
	}

	t.advance(stateEmitted)
	t.logger.Infow("History entry recorded",
		"id", entry.ID.String(),
		"changes", entry.Changes.Len(),
		"associations", entry.Associations.Len(),
	)
	return nil
}

func (r *Recorder) capture(ctx context.Context, t *traversal) (*HistoryEntry, error) {
	if t.entity == nil || t.entity.EntityType() == nil {
		return nil, &CaptureError{Event: t.event, Source: "entity", Err: errors.New("entity or entity type is nil")}
	}

	typeName := t.entity.EntityType().Name()
	cfg, ok := r.registry.Lookup(typeName)
	if !ok {
		t.logger.Debugf("Entity type %s is not tracked", typeName)
		return nil, nil
	}
	if !cfg.Tracks(t.event) {
		t.logger.Debugf("Event %s is not tracked for %s", t.event, typeName)
		return nil, nil
	}

	entityID := values.Key(t.entity.PrimaryKey())
	t.logger = t.logger.WithEntity(typeName, entityID).WithScope(cfg.scope)
	t.advance(stateCapturing)

	if r.captureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.captureTimeout)
		defer cancel()
	}

	before, after := attributeSides(t.event, t.entity)
	changes, err := cfg.diff(before, after)
	if err != nil {
		return nil, &CaptureError{EntityType: typeName, Event: t.event, Source: "change detector", Err: err}
	}

	if changes.Len() == 0 && len(cfg.associations) == 0 && len(cfg.methods) == 0 {
		t.logger.Debug("No tracked changes; skipping history entry")
		return nil, nil
	}

	associations, err := snapshotAssociations(ctx, cfg, t)
	if err != nil {
		return nil, err
	}

	derived := NewOrdered[interface{}]()
	for _, method := range cfg.methods {
		value, err := t.entity.Invoke(ctx, method)
		if err != nil {
			return nil, &CaptureError{EntityType: typeName, Event: t.event, Source: "method " + method, Err: err}
		}
		derived.Set(method, value)
	}

	entry := &HistoryEntry{
		ID:            r.newID(),
		EntityType:    typeName,
		EntityID:      entityID,
		Scope:         cfg.scope,
		Event:         t.event,
		Changes:       changes,
		Associations:  associations,
		DerivedValues: derived,
		Modifier:      ModifierFrom(ctx),
		Timestamp:     r.now(),
	}
	t.advance(stateAssembled)
	return entry, nil
}

// attributeSides picks the before and after maps for an event. The absent
// side of a create or destroy is nil.
func attributeSides(event EventKind, entity Entity) (before, after map[string]interface{}) {
	switch event {
	case EventCreate:
		return nil, maps.Clone(entity.CurrentAttributes())
	case EventDestroy:
		return maps.Clone(entity.CurrentAttributes()), nil
	default:
		return maps.Clone(entity.PriorAttributes()), maps.Clone(entity.CurrentAttributes())
	}
}

func snapshotAssociations(ctx context.Context, cfg *Configuration, t *traversal) (*Ordered[[]*Attributes], error) {
	snapshots := NewOrdered[[]*Attributes]()
	for _, rule := range cfg.associations {
		related, err := t.entity.Related(ctx, rule.Name)
		if err != nil {
			return nil, &CaptureError{EntityType: cfg.entityType, Event: t.event, Source: "association " + rule.Name, Err: err}
		}

		rows := make([]*Attributes, 0, len(related))
		for _, rel := range related {
			if rel == nil {
				continue
			}
			rows = append(rows, snapshotAttributes(rel, rule))
		}
		snapshots.Set(rule.Name, rows)
	}
	return snapshots, nil
}

// snapshotAttributes copies the rule's fields from rel, in declared order.
// Without declared fields every attribute is taken, in column order.
func snapshotAttributes(rel Entity, rule AssociationRule) *Attributes {
	current := rel.CurrentAttributes()

	keys := rule.Fields
	if rule.AllFields() {
		keys = columnOrder(rel, current)
	}

	attrs := NewOrdered[interface{}]()
	for _, key := range keys {
		if value, ok := current[key]; ok {
			attrs.Set(key, value)
		}
	}
	return attrs
}

// columnOrder lists the related entity's columns, then any remaining
// attribute names sorted.
func columnOrder(rel Entity, current map[string]interface{}) []string {
	var columns []string
	if t := rel.EntityType(); t != nil {
		columns = t.ColumnNames()
	}

	keys := uniqueStrings(columns)
	listed := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		listed[key] = struct{}{}
	}

	var extra []string
	for key := range current {
		if _, ok := listed[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

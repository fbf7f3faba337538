package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Test Helpers
// ============================================================================

type fakeType struct {
	name      string
	columns   []string
	relations map[string]RelationDescriptor
}

func (f *fakeType) Name() string          { return f.name }
func (f *fakeType) ColumnNames() []string { return f.columns }

func (f *fakeType) Relation(name string) (RelationDescriptor, error) {
	if rel, ok := f.relations[name]; ok {
		return rel, nil
	}
	return RelationDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
}

func blogPostType() *fakeType {
	return &fakeType{
		name:    "BlogPost",
		columns: []string{"id", "title", "body", "status", "created_at", "updated_at"},
		relations: map[string]RelationDescriptor{
			"comments": {Name: "comments", Target: "Comment", ForeignKey: "post_id", Many: true},
			"author":   {Name: "author", Target: "User", ForeignKey: "author_id"},
		},
	}
}

func commentType() *fakeType {
	return &fakeType{
		name:    "Comment",
		columns: []string{"id", "post_id", "body", "created_at"},
	}
}

type fakeEntity struct {
	typ        EntityType
	id         interface{}
	prior      map[string]interface{}
	current    map[string]interface{}
	methods    map[string]func(ctx context.Context) (interface{}, error)
	related    map[string][]Entity
	relatedErr map[string]error

	mu      sync.Mutex
	invoked []string
	loaded  []string
}

func (e *fakeEntity) EntityType() EntityType                    { return e.typ }
func (e *fakeEntity) PrimaryKey() interface{}                   { return e.id }
func (e *fakeEntity) CurrentAttributes() map[string]interface{} { return e.current }
func (e *fakeEntity) PriorAttributes() map[string]interface{}   { return e.prior }

func (e *fakeEntity) Invoke(ctx context.Context, method string) (interface{}, error) {
	e.mu.Lock()
	e.invoked = append(e.invoked, method)
	e.mu.Unlock()

	fn, ok := e.methods[method]
	if !ok {
		return nil, fmt.Errorf("undefined method %s", method)
	}
	return fn(ctx)
}

func (e *fakeEntity) Related(ctx context.Context, relation string) ([]Entity, error) {
	e.mu.Lock()
	e.loaded = append(e.loaded, relation)
	e.mu.Unlock()

	if err := e.relatedErr[relation]; err != nil {
		return nil, err
	}
	return e.related[relation], nil
}

func comment(id int, body string) *fakeEntity {
	return &fakeEntity{
		typ:     commentType(),
		id:      id,
		current: map[string]interface{}{"id": id, "post_id": 1, "body": body, "created_at": "2024-01-01"},
	}
}

type recordingStore struct {
	mu      sync.Mutex
	entries []*HistoryEntry
	err     error
}

func (s *recordingStore) Store(_ context.Context, entry *HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var fixedTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

var fixedID = uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeffffffff")

func newTestRecorder(t interface{ Fatalf(string, ...interface{}) }, reg *Registry, store Store, opts ...RecorderOption) *Recorder {
	opts = append([]RecorderOption{
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() uuid.UUID { return fixedID }),
	}, opts...)
	rec, err := NewRecorder(reg, store, opts...)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	return rec
}

package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HistoryStore.Port != 3306 {
		t.Errorf("expected history_store port 3306, got %d", cfg.HistoryStore.Port)
	}
	if cfg.HistoryStore.TLS != "preferred" {
		t.Errorf("expected history_store TLS 'preferred', got %s", cfg.HistoryStore.TLS)
	}
	if cfg.HistoryStore.MaxConnections != 10 {
		t.Errorf("expected history_store max_connections 10, got %d", cfg.HistoryStore.MaxConnections)
	}

	if cfg.Tracking.Table != "history_entries" {
		t.Errorf("expected tracking table 'history_entries', got %s", cfg.Tracking.Table)
	}
	if len(cfg.Tracking.IgnoredAttributes) != 2 ||
		cfg.Tracking.IgnoredAttributes[0] != "created_at" ||
		cfg.Tracking.IgnoredAttributes[1] != "updated_at" {
		t.Errorf("expected ignored attributes [created_at updated_at], got %v", cfg.Tracking.IgnoredAttributes)
	}
	if cfg.Tracking.CaptureTimeoutSeconds != 0 {
		t.Errorf("expected no capture timeout by default, got %v", cfg.Tracking.CaptureTimeoutSeconds)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected logging format 'json', got %s", cfg.Logging.Format)
	}
}

func TestEntityTableName(t *testing.T) {
	explicit := EntityConfig{Table: "posts"}
	if got := explicit.TableName("blog_post"); got != "posts" {
		t.Errorf("expected explicit table 'posts', got %s", got)
	}

	implicit := EntityConfig{}
	if got := implicit.TableName("blog_post"); got != "blog_post" {
		t.Errorf("expected table to default to entity name, got %s", got)
	}
}

func TestEntityGetRelation(t *testing.T) {
	entity := EntityConfig{
		Relations: []RelationConfig{
			{Name: "comments", Table: "comments", ForeignKey: "post_id", DependencyType: "1-N"},
			{Name: "author", Table: "users", ForeignKey: "author_id", DependencyType: "1-1"},
		},
	}

	rel, ok := entity.GetRelation("author")
	if !ok {
		t.Fatal("expected relation 'author' to exist")
	}
	if rel.Table != "users" {
		t.Errorf("expected author table 'users', got %s", rel.Table)
	}

	if _, ok := entity.GetRelation("tags"); ok {
		t.Error("expected relation 'tags' to be missing")
	}
}

func TestEntityNamesSorted(t *testing.T) {
	cfg := &Config{
		Entities: map[string]EntityConfig{
			"comment":   {},
			"blog_post": {},
			"author":    {},
		},
	}

	names := cfg.EntityNames()
	expected := []string{"author", "blog_post", "comment"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d names, got %d", len(expected), len(names))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("name %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
}

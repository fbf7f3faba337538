// Package config provides configuration structures and loading for historytracker.
package config

import "sort"

// Config represents the complete application configuration.
type Config struct {
	HistoryStore DatabaseConfig          `yaml:"history_store" mapstructure:"history_store"`
	Tracking     TrackingConfig          `yaml:"tracking" mapstructure:"tracking"`
	Entities     map[string]EntityConfig `yaml:"entities" mapstructure:"entities"`
	Logging      LoggingConfig           `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// TrackingConfig holds settings shared by every tracked entity type.
type TrackingConfig struct {
	// IgnoredAttributes are never tracked unless an entity lists them in Only.
	IgnoredAttributes     []string `yaml:"ignored_attributes" mapstructure:"ignored_attributes"`
	Table                 string   `yaml:"table" mapstructure:"table"` // history table name
	CaptureTimeoutSeconds float64  `yaml:"capture_timeout_seconds" mapstructure:"capture_timeout_seconds"`
}

// EntityConfig describes how a single entity type is tracked.
type EntityConfig struct {
	Table     string           `yaml:"table" mapstructure:"table"`
	Scope     string           `yaml:"scope" mapstructure:"scope"`
	Only      []string         `yaml:"only" mapstructure:"only"`
	Except    []string         `yaml:"except" mapstructure:"except"`
	Include   []IncludeConfig  `yaml:"include" mapstructure:"include"`
	Methods   []string         `yaml:"methods" mapstructure:"methods"`
	On        []string         `yaml:"on" mapstructure:"on"` // create, update, destroy
	Relations []RelationConfig `yaml:"relations" mapstructure:"relations"`
}

// IncludeConfig names an association to snapshot. An empty Fields list
// snapshots every attribute of the related rows.
type IncludeConfig struct {
	Name   string   `yaml:"name" mapstructure:"name"`
	Fields []string `yaml:"fields" mapstructure:"fields"`
}

// RelationConfig declares a relation between the entity table and another table.
type RelationConfig struct {
	Name           string `yaml:"name" mapstructure:"name"`
	Table          string `yaml:"table" mapstructure:"table"`
	ForeignKey     string `yaml:"foreign_key" mapstructure:"foreign_key"`
	DependencyType string `yaml:"dependency_type" mapstructure:"dependency_type"` // "1-1" or "1-N"
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		HistoryStore: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Tracking: TrackingConfig{
			IgnoredAttributes:     []string{"created_at", "updated_at"},
			Table:                 "history_entries",
			CaptureTimeoutSeconds: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// TableName returns the database table backing the entity, defaulting to the entity name.
func (ec *EntityConfig) TableName(entityName string) string {
	if ec.Table != "" {
		return ec.Table
	}
	return entityName
}

// GetRelation returns the relation declared under name, if any.
func (ec *EntityConfig) GetRelation(name string) (RelationConfig, bool) {
	for _, rel := range ec.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return RelationConfig{}, false
}

// EntityNames returns the configured entity names in sorted order.
func (c *Config) EntityNames() []string {
	names := make([]string, 0, len(c.Entities))
	for name := range c.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

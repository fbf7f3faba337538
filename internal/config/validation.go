package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/historytracker/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

var validEvents = map[string]bool{"create": true, "update": true, "destroy": true}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateDatabase("history_store", &c.HistoryStore)...)
	errors = append(errors, c.validateTracking()...)

	if len(c.Entities) == 0 {
		errors = append(errors, ValidationError{
			Field:   "entities",
			Message: "at least one entity must be defined",
		})
	}
	// Sorted so the report is stable between runs
	for _, name := range c.EntityNames() {
		entity := c.Entities[name]
		errors = append(errors, c.validateEntity(name, &entity)...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateTracking() ValidationErrors {
	var errors ValidationErrors

	if !sqlutil.IsValidIdentifier(c.Tracking.Table) {
		errors = append(errors, ValidationError{
			Field:   "tracking.table",
			Message: fmt.Sprintf("table %q must contain only alphanumeric characters and underscores", c.Tracking.Table),
		})
	}

	if c.Tracking.CaptureTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "tracking.capture_timeout_seconds",
			Message: "capture_timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateEntity(name string, entity *EntityConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("entities.%s", name)

	if table := entity.TableName(name); !sqlutil.IsValidIdentifier(table) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".table",
			Message: fmt.Sprintf("table %q must contain only alphanumeric characters and underscores", table),
		})
	}

	for i, event := range entity.On {
		if !validEvents[event] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.on[%d]", prefix, i),
				Message: fmt.Sprintf("event %q must be 'create', 'update', or 'destroy'", event),
			})
		}
	}

	for i, rel := range entity.Relations {
		errors = append(errors, validateRelation(fmt.Sprintf("%s.relations[%d]", prefix, i), &rel)...)
	}

	for i, inc := range entity.Include {
		incPrefix := fmt.Sprintf("%s.include[%d]", prefix, i)
		if inc.Name == "" {
			errors = append(errors, ValidationError{
				Field:   incPrefix + ".name",
				Message: "name is required",
			})
			continue
		}
		if _, ok := entity.GetRelation(inc.Name); !ok {
			errors = append(errors, ValidationError{
				Field:   incPrefix + ".name",
				Message: fmt.Sprintf("relation %q is not declared under relations", inc.Name),
			})
		}
	}

	return errors
}

func validateRelation(prefix string, rel *RelationConfig) ValidationErrors {
	var errors ValidationErrors

	if rel.Name == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".name",
			Message: "name is required",
		})
	}

	if rel.Table == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".table",
			Message: "table name is required",
		})
	}

	if rel.ForeignKey == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".foreign_key",
			Message: "foreign_key is required",
		})
	}

	validTypes := map[string]bool{"1-1": true, "1-N": true, "": true}
	if !validTypes[rel.DependencyType] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".dependency_type",
			Message: "dependency_type must be '1-1' or '1-N'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
